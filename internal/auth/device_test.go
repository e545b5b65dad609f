package auth

import (
	"strings"
	"testing"
)

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		deviceType string
		vendor     string
		cpu        string
	}{
		{
			name:       "android phone",
			ua:         "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
			deviceType: DeviceAndroid,
			vendor:     "Google",
		},
		{
			name:       "android tv",
			ua:         "Mozilla/5.0 (Linux; Android 9; BRAVIA 4K GB) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.93 TV Safari/537.36",
			deviceType: DeviceAndroidTV,
		},
		{
			name:       "windows desktop",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			deviceType: DeviceWindowsPC,
			cpu:        "amd64",
		},
		{
			name:       "mac desktop",
			ua:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
			deviceType: DeviceMac,
			vendor:     "Apple",
		},
		{
			name:       "playstation console",
			ua:         "Mozilla/5.0 (PlayStation; PlayStation 5/2.26) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0 Safari/605.1.15",
			deviceType: DeviceConsole,
			vendor:     "Sony",
		},
		{
			name:       "curl",
			ua:         "curl/8.5.0",
			deviceType: DeviceEmbedded,
		},
		{
			name:       "empty header",
			ua:         "",
			deviceType: DeviceEmbedded,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyUserAgent(tc.ua)
			if got.DeviceType != tc.deviceType {
				t.Errorf("DeviceType = %q, want %q", got.DeviceType, tc.deviceType)
			}
			if tc.vendor != "" && got.Vendor != tc.vendor {
				t.Errorf("Vendor = %q, want %q", got.Vendor, tc.vendor)
			}
			if tc.cpu != "" && got.CPU != tc.cpu {
				t.Errorf("CPU = %q, want %q", got.CPU, tc.cpu)
			}
			if got.Summary == "" {
				t.Error("Summary must never be empty")
			}
			if !strings.Contains(got.Summary, got.DeviceType) {
				t.Errorf("Summary %q does not mention device type %q", got.Summary, got.DeviceType)
			}
		})
	}
}

func TestClassifySummaryShape(t *testing.T) {
	got := ClassifyUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	for _, part := range []string{"Chrome", "Windows", DeviceWindowsPC, "amd64 CPU", " on a ", " from "} {
		if !strings.Contains(got.Summary, part) {
			t.Errorf("Summary %q missing %q", got.Summary, part)
		}
	}
}
