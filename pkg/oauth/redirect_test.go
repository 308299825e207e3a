package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDesktopRedirect(t *testing.T) {
	mobile := PlatformContext{IsMobileApp: true, IsDesktopRuntime: true}
	desktop := PlatformContext{IsDesktopRuntime: true}

	tests := []struct {
		name        string
		ctx         PlatformContext
		mode        EnvironmentMode
		useCustom   bool
		appleForced bool
		port        int
		isOAuthFlow bool
		want        string
	}{
		{
			name: "mobile production email flow uses web callback",
			ctx:  mobile, mode: Production,
			want: DefaultWebCallbackURL,
		},
		{
			name: "mobile production oauth flow uses deep link",
			ctx:  mobile, mode: Production, isOAuthFlow: true,
			want: DefaultDeepLinkURL,
		},
		{
			name: "mobile development still uses deep link",
			ctx:  mobile, mode: Development, isOAuthFlow: true,
			want: DefaultDeepLinkURL,
		},
		{
			name: "desktop production uses deep link",
			ctx:  desktop, mode: Production,
			want: DefaultDeepLinkURL,
		},
		{
			name: "desktop production ignores port",
			ctx:  desktop, mode: Production, port: 54321, isOAuthFlow: true,
			want: DefaultDeepLinkURL,
		},
		{
			name: "forced apple sign-in uses deep link in development",
			ctx:  desktop, mode: Development, appleForced: true,
			want: DefaultDeepLinkURL,
		},
		{
			name: "development desktop uses loopback",
			ctx:  PlatformContext{}, mode: Development, port: 54321,
			want: "http://localhost:54321",
		},
		{
			name: "development desktop oauth flow uses loopback",
			ctx:  PlatformContext{}, mode: Development, port: 54321, isOAuthFlow: true,
			want: "http://localhost:54321",
		},
		{
			name: "custom oauth server wins over production",
			ctx:  desktop, mode: Production, useCustom: true, port: 8080,
			want: "http://localhost:8080",
		},
		{
			name: "custom oauth server wins over mobile",
			ctx:  mobile, mode: Production, useCustom: true, port: 8080, isOAuthFlow: true,
			want: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDesktopRedirect(tt.ctx, tt.mode, tt.useCustom, tt.appleForced, tt.port, tt.isOAuthFlow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDesktopRedirect_LoopbackWithoutPort(t *testing.T) {
	_, err := ResolveDesktopRedirect(PlatformContext{}, Development, false, false, 0, true)
	assert.ErrorIs(t, err, ErrLocalPortRequired)

	// The custom OAuth override takes precedence and selects loopback, so it
	// needs a port just like plain development does.
	_, err = ResolveDesktopRedirect(PlatformContext{}, Development, true, false, 0, false)
	assert.ErrorIs(t, err, ErrLocalPortRequired)

	_, err = ResolveDesktopRedirect(PlatformContext{}, Development, false, false, 70000, false)
	assert.ErrorIs(t, err, ErrLocalPortRequired)
}

func TestResolveDesktopRedirect_IsPure(t *testing.T) {
	ctx := PlatformContext{IsDesktopRuntime: true, IsMacOSApp: true}
	first, err := ResolveDesktopRedirect(ctx, Development, false, false, 4321, true)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := ResolveDesktopRedirect(ctx, Development, false, false, 4321, true)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestResolveWebRedirect(t *testing.T) {
	got, err := ResolveWebRedirect(Production, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultWebCallbackURL, got)

	got, err = ResolveWebRedirect(Development, "http://localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/auth/callback", got)

	got, err = ResolveWebRedirect(Development, "https://preview.example.com/library?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://preview.example.com/auth/callback", got)

	_, err = ResolveWebRedirect(Development, "")
	assert.ErrorIs(t, err, ErrOriginRequired)

	_, err = ResolveWebRedirect(Development, "not a url")
	assert.Error(t, err)
}

func TestResolver_CustomTargets(t *testing.T) {
	r := Resolver{WebCallbackURL: "https://example.com/cb", DeepLinkURL: "myapp://cb"}

	got, err := r.ResolveDesktopRedirect(PlatformContext{IsDesktopRuntime: true}, Production, false, false, 0, true)
	require.NoError(t, err)
	assert.Equal(t, "myapp://cb", got)

	got, err = r.ResolveWebRedirect(Production, "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cb", got)

	var zero Resolver
	got, err = zero.ResolveDesktopRedirect(PlatformContext{IsDesktopRuntime: true}, Production, false, false, 0, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultDeepLinkURL, got)
}

func TestResolve_DispatchesOnVariant(t *testing.T) {
	got, err := Resolve(RedirectRequest{Platform: ContextFor(PlatformWeb), Mode: Development, Origin: "http://localhost:3000"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/auth/callback", got)

	got, err = Resolve(RedirectRequest{Platform: ContextFor(PlatformDesktop), Mode: Development, LocalPort: 5000})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", got)

	got, err = Resolve(RedirectRequest{Platform: ContextFor(PlatformIOS), Mode: Development, IsOAuthFlow: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultDeepLinkURL, got)

	got, err = Resolve(RedirectRequest{Platform: ContextFor(PlatformAndroid), Mode: Production})
	require.NoError(t, err)
	assert.Equal(t, DefaultWebCallbackURL, got)
}

func TestNeedsLoopback(t *testing.T) {
	assert.True(t, NeedsLoopback(ContextFor(PlatformDesktop), Development, false, false))
	assert.True(t, NeedsLoopback(ContextFor(PlatformMacOS), Production, true, false))
	assert.False(t, NeedsLoopback(ContextFor(PlatformDesktop), Production, false, false))
	assert.False(t, NeedsLoopback(ContextFor(PlatformDesktop), Development, false, true))
	assert.False(t, NeedsLoopback(ContextFor(PlatformIOS), Development, false, false))
	assert.False(t, NeedsLoopback(ContextFor(PlatformWeb), Development, true, false))
}
