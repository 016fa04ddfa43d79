package packaging

import (
	"strings"
	"testing"
)

func TestGenerateUnitFile_DefaultConfig(t *testing.T) {
	cfg := InstallConfig{}
	output := GenerateUnitFile(cfg)

	// Check sections exist
	if !strings.Contains(output, "[Unit]") {
		t.Error("output missing [Unit] section")
	}
	if !strings.Contains(output, "[Service]") {
		t.Error("output missing [Service] section")
	}
	if !strings.Contains(output, "[Install]") {
		t.Error("output missing [Install] section")
	}

	// Check key directives
	if !strings.Contains(output, "Type=simple") {
		t.Error("output missing Type=simple")
	}
	if !strings.Contains(output, "After=network-online.target") {
		t.Error("output missing After=network-online.target")
	}
	if !strings.Contains(output, "Restart=always") {
		t.Error("output missing Restart=always")
	}
	if !strings.Contains(output, "WantedBy=multi-user.target") {
		t.Error("output missing WantedBy=multi-user.target")
	}
}

func TestGenerateUnitFile_RunsSupervised(t *testing.T) {
	cfg := InstallConfig{}
	output := GenerateUnitFile(cfg)

	want := "ExecStart=/usr/local/bin/duplexd apply --supervise --config /etc/duplexd/config.yaml"
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q, got:\n%s", want, output)
	}
}

func TestGenerateUnitFile_TeardownOnExit(t *testing.T) {
	cfg := InstallConfig{TeardownOnExit: true}
	output := GenerateUnitFile(cfg)

	want := "ExecStart=/usr/local/bin/duplexd apply --supervise --teardown-on-exit --config /etc/duplexd/config.yaml"
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q, got:\n%s", want, output)
	}
}

func TestGenerateUnitFile_SecurityHardening(t *testing.T) {
	cfg := InstallConfig{}
	output := GenerateUnitFile(cfg)

	if !strings.Contains(output, "ProtectSystem=full") {
		t.Error("output missing ProtectSystem=full")
	}
	if !strings.Contains(output, "ProtectHome=true") {
		t.Error("output missing ProtectHome=true")
	}
	// Ingress redirection needs CAP_NET_ADMIN and nothing else.
	if !strings.Contains(output, "AmbientCapabilities=CAP_NET_ADMIN\n") {
		t.Error("output missing AmbientCapabilities=CAP_NET_ADMIN")
	}
	if !strings.Contains(output, "CapabilityBoundingSet=CAP_NET_ADMIN\n") {
		t.Error("output missing CapabilityBoundingSet=CAP_NET_ADMIN")
	}
}

func TestGenerateUnitFile_CrashLoopProtection(t *testing.T) {
	cfg := InstallConfig{}
	output := GenerateUnitFile(cfg)

	if !strings.Contains(output, "StartLimitBurst=5") {
		t.Error("output missing StartLimitBurst=5")
	}
	if !strings.Contains(output, "StartLimitIntervalSec=60") {
		t.Error("output missing StartLimitIntervalSec=60")
	}
}

func TestGenerateUnitFile_CustomPaths(t *testing.T) {
	cfg := InstallConfig{
		BinaryPath: "/opt/duplexd/bin/duplexd",
		ConfigDir:  "/opt/duplexd/etc",
		DataDir:    "/opt/duplexd/data",
	}
	output := GenerateUnitFile(cfg)

	if !strings.Contains(output, "ExecStart=/opt/duplexd/bin/duplexd apply --supervise --config /opt/duplexd/etc/config.yaml") {
		t.Errorf("output missing custom ExecStart with config path, got:\n%s", output)
	}
	if !strings.Contains(output, "ReadWritePaths=/opt/duplexd/data") {
		t.Errorf("output missing custom ReadWritePaths, got:\n%s", output)
	}
}
