package cli

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteExtensions(t *testing.T) {
	tests := []struct {
		toComplete string
		want       []string
	}{
		{".t", []string{".tif", ".tiff"}},
		{".J", []string{".jpeg", ".jpg"}},
		{".png,.b", []string{".png,.bmp"}},
		{".png,.p", nil},
		{".PNG,.bmp,.w", []string{".PNG,.bmp,.webp"}},
	}
	for _, tt := range tests {
		t.Run(tt.toComplete, func(t *testing.T) {
			got, directive := completeExtensions(nil, nil, tt.toComplete)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("completeExtensions(%q) = %v, want %v", tt.toComplete, got, tt.want)
			}
			if directive&cobra.ShellCompDirectiveNoFileComp == 0 {
				t.Error("extension completion should not fall back to files")
			}
		})
	}
}

func TestPositionalCompletion(t *testing.T) {
	tests := []struct {
		name      string
		fn        completionFunc
		args      []string
		want      []string
		directive cobra.ShellCompDirective
	}{
		{"convert input", fileArgs(1, imageExtensions...), nil, imageExtensions, cobra.ShellCompDirectiveFilterFileExt},
		{"convert extra", fileArgs(1, imageExtensions...), []string{"a.png"}, nil, cobra.ShellCompDirectiveNoFileComp},
		{"preview input", fileArgs(1, "svg"), nil, []string{"svg"}, cobra.ShellCompDirectiveFilterFileExt},
		{"batch output", dirArgs(2), []string{"in"}, nil, cobra.ShellCompDirectiveFilterDirs},
		{"batch extra", dirArgs(2), []string{"in", "out"}, nil, cobra.ShellCompDirectiveNoFileComp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := tt.fn(nil, tt.args, "")
			if !reflect.DeepEqual(got, tt.want) || directive != tt.directive {
				t.Errorf("got %v, %v; want %v, %v", got, directive, tt.want, tt.directive)
			}
		})
	}
}

func TestCompletionThroughRoot(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "batch", "--ext", ".png,.g"})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), ".png,.gif") {
		t.Errorf("completion output = %q, want .png,.gif", out.String())
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetArgs([]string{"completion", shell})
			root.SetOut(&out)
			root.SetErr(io.Discard)
			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), "pxsvg") {
				t.Errorf("%s script should mention pxsvg", shell)
			}
		})
	}
}
