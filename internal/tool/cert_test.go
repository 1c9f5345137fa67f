package tool

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestEnsureTlsCertificate(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.pem")
	certFile := filepath.Join(dir, "cert.pem")

	created, err := EnsureTlsCertificate("ledtune", "ledtune test", keyFile, certFile, []string{"localhost", "127.0.0.1"})
	if err != nil {
		t.Fatalf("EnsureTlsCertificate() error = %v", err)
	}
	if !created {
		t.Error("EnsureTlsCertificate() created = false, want true")
	}
	if _, err = tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		t.Errorf("LoadX509KeyPair() error = %v", err)
	}

	created, err = EnsureTlsCertificate("ledtune", "ledtune test", keyFile, certFile, nil)
	if err != nil || created {
		t.Errorf("second EnsureTlsCertificate() = %v, %v, want false, nil", created, err)
	}
}

func TestIsFileExists(t *testing.T) {
	exists, err := IsFileExists(filepath.Join(t.TempDir(), "missing"))
	if err != nil || exists {
		t.Errorf("IsFileExists(missing) = %v, %v, want false, nil", exists, err)
	}
}
