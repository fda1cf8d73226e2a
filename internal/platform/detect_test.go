package platform

import (
	"context"
	"runtime"
	"testing"
)

func TestRealDetector_Detect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}
	if info.Platform != "" && info.Family == "" {
		t.Error("Family must be set whenever Platform is set")
	}
}

func TestStaticDetector(t *testing.T) {
	want := &Info{OS: "linux", Arch: "amd64"}
	got, err := StaticDetector{Info: want}.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got != want {
		t.Errorf("Detect() = %v, want %v", got, want)
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"linux with distro", Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: FamilyDebian, Version: "24.04"}, "ubuntu 24.04 (amd64)"},
		{"linux no version", Info{OS: "linux", Arch: "arm64", Platform: "arch", Family: FamilyArch}, "arch (arm64)"},
		{"linux without distro", Info{OS: "linux", Arch: "amd64"}, "linux (amd64)"},
		{"macos", Info{OS: "darwin", Arch: "arm64"}, "darwin (arm64)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
