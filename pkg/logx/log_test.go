package logx

import (
	"bytes"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

func TestNewLevel(t *testing.T) {
	RegisterTestingT(t)

	Expect(New(&bytes.Buffer{}, "debug").GetLevel()).To(Equal(zerolog.DebugLevel))
	Expect(New(&bytes.Buffer{}, " WARN ").GetLevel()).To(Equal(zerolog.WarnLevel))
	Expect(New(&bytes.Buffer{}, "").GetLevel()).To(Equal(zerolog.InfoLevel))
	Expect(New(&bytes.Buffer{}, "chatty").GetLevel()).To(Equal(zerolog.InfoLevel))
}

func TestNewWritesBelowLevelDropped(t *testing.T) {
	RegisterTestingT(t)

	buf := &bytes.Buffer{}
	log := New(buf, "warn")
	log.Info().Msg("hidden")
	Expect(buf.String()).To(BeEmpty())
	log.Warn().Msg("shown")
	Expect(buf.String()).To(ContainSubstring("shown"))
}
