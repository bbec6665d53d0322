// Package pkg provides the libraries behind pxsvg, a converter from pixel-art
// bitmaps to SVG documents built from axis-aligned rectangles.
//
// # Architecture
//
// A conversion flows through four stages:
//
//	PNG/GIF/JPEG/BMP/TIFF/WebP bytes
//	         ↓
//	    [raster.DecodeBytes]    decode into a Grid of RGBA pixels
//	         ↓
//	    [raster.ExtractRuns]    maximal horizontal runs of identical pixels
//	         ↓
//	    [raster.MergeRuns]      stack equal runs into rectangles
//	         ↓
//	    [svg.Render]            one <rect> per rectangle
//
// [pipeline.Runner] strings the stages together and caches finished
// documents through [cache.Cache]. [batch.Mirror] converts whole directory
// trees, [preview] rasterizes documents back to PNG and [server] exposes
// conversion over HTTP.
//
// # Packages
//
//   - [raster]: pixel grid, run extraction and rectangle merging
//   - [svg]: document emission
//   - [pipeline]: orchestration and caching
//   - [batch]: directory mirroring on a worker pool
//   - [preview]: SVG rasterization and round-trip checks
//   - [server]: HTTP API
//   - [cache]: file, Redis and no-op backends
//   - [config]: TOML configuration
//   - [errors]: coded errors and input validation
//   - [observability]: conversion hooks
//   - [fsutil]: atomic writes and file copies
//   - [buildinfo]: version information
package pkg
