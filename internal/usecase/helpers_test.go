package usecase

import (
	"testing"
	"time"

	"cakeshop/internal/domain"
	"cakeshop/internal/notify"
	"cakeshop/internal/session"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestDeps(t *testing.T) (*logrus.Logger, *session.Store, *notify.Center) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, session.NewStore(&session.MemoryStorage{}, logger), notify.NewCenter(logger)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load to settle")
	}
}

func vanilla() *domain.Product {
	return &domain.Product{ID: 1, Name: "Vanilla", Description: "Classic sponge", Price: decimal.RequireFromString("12.5"), ImageURL: "/img/vanilla.jpg"}
}

func noticeTexts(c *notify.Center) []string {
	var out []string
	for _, n := range c.Active() {
		out = append(out, n.Text)
	}
	return out
}

func mustSetToken(t *testing.T, s *session.Store, token string) {
	t.Helper()
	require.NoError(t, s.SetToken(token))
}
