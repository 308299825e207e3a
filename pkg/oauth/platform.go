package oauth

import (
	"runtime"
	"strings"
)

// PlatformContext holds the runtime facts supplied by the host shell.
type PlatformContext struct {
	IsMobileApp      bool
	IsIOSApp         bool
	IsAndroidApp     bool
	IsMacOSApp       bool
	IsDesktopRuntime bool
}

// Platform is the closed set of shells the redirect rules distinguish.
type Platform int

const (
	// PlatformWeb is a plain web page with no native shell.
	PlatformWeb Platform = iota
	// PlatformDesktop is a packaged Linux or Windows app.
	PlatformDesktop
	// PlatformMacOS is a packaged macOS app.
	PlatformMacOS
	// PlatformIOS is the iOS app.
	PlatformIOS
	// PlatformAndroid is the Android app.
	PlatformAndroid
)

// String returns the lower-case name of the platform.
func (p Platform) String() string {
	switch p {
	case PlatformWeb:
		return "web"
	case PlatformDesktop:
		return "desktop"
	case PlatformMacOS:
		return "macos"
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	default:
		return "unknown"
	}
}

// IsNative reports whether the platform runs inside a packaged app shell.
func (p Platform) IsNative() bool {
	return p != PlatformWeb
}

// IsMobile reports whether the platform is a mobile app.
func (p Platform) IsMobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// Variant collapses the boolean facts into a single Platform.
// Mobile flags win over desktop ones; a context that is neither mobile nor a
// desktop runtime is a web page.
func (c PlatformContext) Variant() Platform {
	switch {
	case c.IsIOSApp:
		return PlatformIOS
	case c.IsAndroidApp:
		return PlatformAndroid
	case c.IsMobileApp:
		// Mobile without a specific OS is treated like Android (custom tab, no
		// embedded session).
		return PlatformAndroid
	case c.IsMacOSApp:
		return PlatformMacOS
	case c.IsDesktopRuntime:
		return PlatformDesktop
	default:
		return PlatformWeb
	}
}

// ContextFor builds the PlatformContext matching a variant.
func ContextFor(p Platform) PlatformContext {
	switch p {
	case PlatformDesktop:
		return PlatformContext{IsDesktopRuntime: true}
	case PlatformMacOS:
		return PlatformContext{IsDesktopRuntime: true, IsMacOSApp: true}
	case PlatformIOS:
		return PlatformContext{IsDesktopRuntime: true, IsMobileApp: true, IsIOSApp: true}
	case PlatformAndroid:
		return PlatformContext{IsDesktopRuntime: true, IsMobileApp: true, IsAndroidApp: true}
	default:
		return PlatformContext{}
	}
}

// ParsePlatform maps a platform name to its variant.
func ParsePlatform(name string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "web":
		return PlatformWeb, true
	case "desktop", "linux", "windows":
		return PlatformDesktop, true
	case "macos", "darwin":
		return PlatformMacOS, true
	case "ios":
		return PlatformIOS, true
	case "android":
		return PlatformAndroid, true
	default:
		return PlatformWeb, false
	}
}

var goos = runtime.GOOS

// DetectPlatform returns the PlatformContext of the running process, which is
// always a packaged desktop runtime.
func DetectPlatform() PlatformContext {
	if goos == "darwin" {
		return ContextFor(PlatformMacOS)
	}
	return ContextFor(PlatformDesktop)
}

// EnvironmentMode distinguishes production builds from development ones.
type EnvironmentMode int

const (
	Development EnvironmentMode = iota
	Production
)

// String returns the NODE_ENV spelling of the mode.
func (m EnvironmentMode) String() string {
	if m == Production {
		return "production"
	}
	return "development"
}

// ParseEnvironmentMode follows NODE_ENV semantics: only "production" selects
// Production, every other value (including empty) is Development.
func ParseEnvironmentMode(s string) EnvironmentMode {
	if strings.EqualFold(strings.TrimSpace(s), "production") {
		return Production
	}
	return Development
}
