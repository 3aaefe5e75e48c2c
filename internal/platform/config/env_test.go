package config

import "testing"

func TestParseEnvDefaults(t *testing.T) {
	type cfg struct {
		Root string `env:"LANDINGFORGE_TEST_ROOT" envDefault:"/var/lib/landingforge"`
		Port int    `env:"LANDINGFORGE_TEST_PORT" envDefault:"8090"`
	}

	var c cfg
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("ParseEnv error = %v", err)
	}
	if c.Root != "/var/lib/landingforge" {
		t.Fatalf("Root = %q, want default", c.Root)
	}
	if c.Port != 8090 {
		t.Fatalf("Port = %d, want 8090", c.Port)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("LANDINGFORGE_TEST_ROOT", "/tmp/storage")

	type cfg struct {
		Root string `env:"LANDINGFORGE_TEST_ROOT" envDefault:"/var/lib/landingforge"`
	}

	var c cfg
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("ParseEnv error = %v", err)
	}
	if c.Root != "/tmp/storage" {
		t.Fatalf("Root = %q, want override", c.Root)
	}
}
