package auth

import (
	"fmt"
	"strings"

	"github.com/mileusna/useragent"
)

// Classification is the coarse device descriptor stored on audit visit
// records. DeviceType is one of the normalized buckets below; Summary is a
// single human-readable line combining browser, OS, device type, vendor,
// model and CPU.
type Classification struct {
	Browser    string
	OS         string
	DeviceType string
	Vendor     string
	Model      string
	CPU        string
	Summary    string
}

// Normalized device type buckets.
const (
	DeviceAndroidTV  = "Android TV"
	DeviceAndroid    = "Android Phone"
	DeviceAndroidGen = "Android Device"
	DeviceWindowsPC  = "Windows PC"
	DeviceMac        = "Mac"
	DeviceConsole    = "Console"
	DeviceXR         = "Extended Reality Device"
	DeviceWearable   = "Wearable"
	DeviceEmbedded   = "Embedded Device"
	DeviceUnknown    = "Unknown Device"
)

// ClassifyUserAgent parses a raw User-Agent header into a Classification.
// It never fails: unparseable input yields "Unknown" placeholders. The
// normalization rules are ordered; the first match wins:
//
//  1. Android OS        -> Android TV / Android Phone / Android Device
//  2. Windows OS        -> Windows PC
//  3. macOS             -> Mac
//  4. console/xr/wearable raw types -> mapped one to one
//  5. embedded or missing raw type  -> Embedded Device
//  6. anything else     -> Unknown Device
func ClassifyUserAgent(raw string) Classification {
	ua := useragent.Parse(raw)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown Browser"
	}
	osName := ua.OS
	if osName == "" {
		osName = "Unknown OS"
	}
	normalizedOS := strings.TrimSpace(osName + " " + ua.OSVersion)

	rawType := rawDeviceType(ua, raw)
	osLower := strings.ToLower(osName)

	deviceType := DeviceUnknown
	switch {
	case strings.Contains(osLower, "android"):
		switch rawType {
		case "smarttv":
			deviceType = DeviceAndroidTV
		case "mobile", "tablet":
			deviceType = DeviceAndroid
		default:
			deviceType = DeviceAndroidGen
		}
	case strings.Contains(osLower, "windows"):
		deviceType = DeviceWindowsPC
	case strings.Contains(osLower, "mac"):
		deviceType = DeviceMac
	case rawType == "console":
		deviceType = DeviceConsole
	case rawType == "xr":
		deviceType = DeviceXR
	case rawType == "wearable":
		deviceType = DeviceWearable
	case rawType == "embedded" || rawType == "":
		deviceType = DeviceEmbedded
	}

	vendor := deviceVendor(raw, osLower)
	cpu := cpuArchitecture(raw)

	cpuLabel := cpu
	if cpuLabel == "" {
		cpuLabel = "Unknown"
	}
	summary := fmt.Sprintf("%s on a %s %s from %s model %s with %s CPU",
		browser, normalizedOS, deviceType, vendor, ua.Device, cpuLabel)

	return Classification{
		Browser:    browser,
		OS:         normalizedOS,
		DeviceType: deviceType,
		Vendor:     vendor,
		Model:      ua.Device,
		CPU:        cpu,
		Summary:    summary,
	}
}

// rawDeviceType reduces the parsed agent to the coarse raw categories the
// normalization table dispatches on. The parser only reports mobile/tablet/
// desktop, so TV, console, XR and wearable devices are sniffed from their
// well-known agent tokens.
func rawDeviceType(ua useragent.UserAgent, raw string) string {
	l := strings.ToLower(raw)
	switch {
	case containsAny(l, "smart-tv", "smarttv", "googletv", "appletv", "crkey", "roku", "bravia", "hbbtv", "netcast", "webos", "tizen"):
		return "smarttv"
	case containsAny(l, "playstation", "xbox", "nintendo"):
		return "console"
	case containsAny(l, "oculus", "quest", "visionos", "vive", "pico neo"):
		return "xr"
	case containsAny(l, "watch os", "watchos", "applewatch", "galaxy watch"):
		return "wearable"
	case ua.Tablet:
		return "tablet"
	case ua.Mobile:
		return "mobile"
	case ua.Desktop:
		return "desktop"
	case containsAny(l, "embedded", "curl", "wget"):
		return "embedded"
	}
	return ""
}

// deviceVendor guesses the hardware vendor from agent tokens. Absence is
// reported as "Unknown Vendor" so the summary line stays well-formed.
func deviceVendor(raw, osLower string) string {
	l := strings.ToLower(raw)
	switch {
	case containsAny(l, "iphone", "ipad", "macintosh") || strings.Contains(osLower, "mac") || strings.Contains(osLower, "ios"):
		return "Apple"
	case containsAny(l, "samsung", "sm-"):
		return "Samsung"
	case strings.Contains(l, "huawei"):
		return "Huawei"
	case containsAny(l, "xiaomi", "redmi"):
		return "Xiaomi"
	case strings.Contains(l, "oneplus"):
		return "OnePlus"
	case strings.Contains(l, "pixel"):
		return "Google"
	case strings.Contains(l, "playstation"):
		return "Sony"
	case strings.Contains(l, "xbox"):
		return "Microsoft"
	case strings.Contains(l, "nintendo"):
		return "Nintendo"
	}
	return "Unknown Vendor"
}

// cpuArchitecture extracts the CPU architecture token when present.
func cpuArchitecture(raw string) string {
	l := strings.ToLower(raw)
	switch {
	case containsAny(l, "x86_64", "x86-64", "x64", "amd64", "win64", "wow64"):
		return "amd64"
	case containsAny(l, "aarch64", "arm64"):
		return "arm64"
	case strings.Contains(l, "arm"):
		return "arm"
	case containsAny(l, "i686", "i386"):
		return "ia32"
	case strings.Contains(l, "ppc"):
		return "ppc"
	case strings.Contains(l, "sparc"):
		return "sparc"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
