package api

import "testing"

func TestInitTLS(t *testing.T) {
	tests := []struct {
		name      string
		cert, key string
		want      bool
	}{
		{"none", "", "", false},
		{"only cert", "/path/to/cert.pem", "", false},
		{"only key", "", "/path/to/key.pem", false},
		{"both", "/path/to/cert.pem", "/path/to/key.pem", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { SetTLSConfigForTest(nil) })

			InitTLS(tt.cert, tt.key)
			if IsTLSEnabled() != tt.want {
				t.Fatalf("IsTLSEnabled() = %v, want %v", IsTLSEnabled(), tt.want)
			}
			if !tt.want {
				return
			}
			cfg := GetTLSConfig()
			if cfg.CertFile != tt.cert || cfg.KeyFile != tt.key {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestInitTLSClearsPrevious(t *testing.T) {
	t.Cleanup(func() { SetTLSConfigForTest(nil) })

	InitTLS("/a.pem", "/b.pem")
	InitTLS("", "")
	if IsTLSEnabled() {
		t.Error("second InitTLS without paths should disable TLS")
	}
}

func TestLoadTLSConfig_NotEnabled(t *testing.T) {
	SetTLSConfigForTest(nil)

	if LoadTLSConfig() != nil {
		t.Error("LoadTLSConfig should return nil when TLS is not enabled")
	}
}

func TestLoadTLSConfig_InvalidFiles(t *testing.T) {
	SetTLSConfigForTest(&TLSConfig{
		CertFile: "/nonexistent/cert.pem",
		KeyFile:  "/nonexistent/key.pem",
	})
	defer SetTLSConfigForTest(nil)

	if LoadTLSConfig() != nil {
		t.Error("LoadTLSConfig should return nil when cert files don't exist")
	}
}
