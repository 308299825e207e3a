package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformContext_Variant(t *testing.T) {
	assert.Equal(t, PlatformWeb, PlatformContext{}.Variant())
	assert.Equal(t, PlatformDesktop, PlatformContext{IsDesktopRuntime: true}.Variant())
	assert.Equal(t, PlatformMacOS, PlatformContext{IsDesktopRuntime: true, IsMacOSApp: true}.Variant())
	assert.Equal(t, PlatformIOS, PlatformContext{IsMobileApp: true, IsIOSApp: true}.Variant())
	assert.Equal(t, PlatformAndroid, PlatformContext{IsMobileApp: true, IsAndroidApp: true}.Variant())
	assert.Equal(t, PlatformAndroid, PlatformContext{IsMobileApp: true}.Variant())
}

func TestContextFor_RoundTrips(t *testing.T) {
	for _, p := range []Platform{PlatformWeb, PlatformDesktop, PlatformMacOS, PlatformIOS, PlatformAndroid} {
		assert.Equal(t, p, ContextFor(p).Variant(), p.String())
	}
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("Darwin")
	assert.True(t, ok)
	assert.Equal(t, PlatformMacOS, p)

	p, ok = ParsePlatform("linux")
	assert.True(t, ok)
	assert.Equal(t, PlatformDesktop, p)

	_, ok = ParsePlatform("amiga")
	assert.False(t, ok)
}

func TestDetectPlatform(t *testing.T) {
	orig := goos
	defer func() { goos = orig }()

	goos = "darwin"
	assert.Equal(t, PlatformMacOS, DetectPlatform().Variant())

	goos = "linux"
	assert.Equal(t, PlatformDesktop, DetectPlatform().Variant())
}

func TestParseEnvironmentMode(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironmentMode("production"))
	assert.Equal(t, Production, ParseEnvironmentMode(" Production "))
	assert.Equal(t, Development, ParseEnvironmentMode("development"))
	assert.Equal(t, Development, ParseEnvironmentMode("test"))
	assert.Equal(t, Development, ParseEnvironmentMode(""))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("GitHub")
	assert.NoError(t, err)
	assert.Equal(t, ProviderGitHub, p)

	_, err = ParseProvider("myspace")
	assert.Error(t, err)
}

func TestNormalizeBackendURL(t *testing.T) {
	assert.Equal(t, "https://abc.supabase.co", NormalizeBackendURL("https://abc.supabase.co/"))
	assert.Equal(t, "https://abc.supabase.co", NormalizeBackendURL("https://abc.supabase.co/auth/v1/"))
	assert.Equal(t, "https://abc.supabase.co", NormalizeBackendURL("https://abc.supabase.co"))
}
