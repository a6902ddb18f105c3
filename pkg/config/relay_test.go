package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/integrail/pagegen/pkg/llm"
)

func TestDefaults(t *testing.T) {
	RegisterTestingT(t)

	var cfg RelayConfig
	cfg.SetDefaults()
	Expect(cfg.Port).To(Equal(8080))
	Expect(cfg.UpstreamURL).To(Equal(llm.DefaultGeminiURL))
	Expect(cfg.Model).To(Equal(llm.DefaultGeminiModel))
	Expect(cfg.LogLevel).To(Equal("info"))
	Expect(cfg.WebForm).To(BeTrue())
}

func TestValidateRequiresAPIKey(t *testing.T) {
	RegisterTestingT(t)

	var cfg RelayConfig
	cfg.SetDefaults()
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("GEMINI_API_KEY is not set")))

	cfg.APIKey = "   "
	Expect(cfg.Validate()).To(HaveOccurred())

	cfg.APIKey = "key"
	Expect(cfg.Validate()).To(Succeed())

	cfg.Port = 70000
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("invalid port")))
}

func TestPrecedenceFileThenEnv(t *testing.T) {
	RegisterTestingT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	Expect(os.WriteFile(path, []byte(`
port: 9000
api_key: from-file
model: file-model
allowed_origins: ["http://a"]
web_form: false
`), 0o644)).To(Succeed())

	t.Setenv("GEMINI_MODEL", "env-model")
	t.Setenv("ALLOWED_ORIGINS", "http://b, http://c")

	var cfg RelayConfig
	cfg.SetDefaults()
	Expect(cfg.LoadFile(path)).To(Succeed())
	cfg.ApplyEnv()

	Expect(cfg.Port).To(Equal(9000))
	Expect(cfg.APIKey).To(Equal("from-file"))
	Expect(cfg.Model).To(Equal("env-model"))
	Expect(cfg.AllowedOrigins).To(Equal([]string{"http://b", "http://c"}))
	Expect(cfg.WebForm).To(BeFalse())
}

func TestLoadFileErrors(t *testing.T) {
	RegisterTestingT(t)

	var cfg RelayConfig
	Expect(cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))).To(HaveOccurred())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	Expect(os.WriteFile(path, []byte("port: [nope"), 0o644)).To(Succeed())
	Expect(cfg.LoadFile(path)).To(MatchError(ContainSubstring("failed to parse config file")))
}

func TestLoadEnvFile(t *testing.T) {
	RegisterTestingT(t)

	Expect(LoadEnvFile("")).To(Succeed())
	Expect(LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))).To(Succeed())

	path := filepath.Join(t.TempDir(), ".env")
	Expect(os.WriteFile(path, []byte("GEMINI_API_KEY=from-dotenv\nPORT=9123\n"), 0o644)).To(Succeed())
	t.Setenv("PORT", "7000")
	t.Setenv(APIKeyEnv, "")
	Expect(os.Unsetenv(APIKeyEnv)).To(Succeed())

	Expect(LoadEnvFile(path)).To(Succeed())
	var cfg RelayConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	Expect(cfg.APIKey).To(Equal("from-dotenv"))
	Expect(cfg.Port).To(Equal(7000))
	Expect(os.Unsetenv(APIKeyEnv)).To(Succeed())
}
