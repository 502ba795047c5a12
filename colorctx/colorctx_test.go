package colorctx

import "testing"

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.DefaultLuminance != 300 {
		t.Fatalf("DefaultLuminance = %d, want 300", c.DefaultLuminance)
	}
	if c.Registry == nil {
		t.Fatal("New() should populate a default Registry")
	}
	if c.Logger == nil {
		t.Fatal("New() should populate a default (discarding) Logger")
	}
}

func TestNewOptionsOverride(t *testing.T) {
	c := New(WithDefaultLuminance(80), WithCMM(CMMLCMS))
	if c.DefaultLuminance != 80 {
		t.Fatalf("DefaultLuminance = %d, want 80", c.DefaultLuminance)
	}
	if c.CMM != CMMLCMS {
		t.Fatalf("CMM = %v, want CMMLCMS", c.CMM)
	}
}

func TestEnvReflectsContext(t *testing.T) {
	c := New(WithDefaultLuminance(500))
	env := c.Env()
	if env.DefaultLuminance != 500 {
		t.Fatalf("Env().DefaultLuminance = %d, want 500", env.DefaultLuminance)
	}
}
