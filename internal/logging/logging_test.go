package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"priceoracle/internal/logging"
)

func TestNewWithOutput_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := logging.NewWithOutput(&buf, "debug", "json")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("feed", "alpha_vantage").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "alpha_vantage", line["feed"])
}

func TestNewWithOutput_Defaults(t *testing.T) {
	t.Parallel()

	l, err := logging.NewWithOutput(&bytes.Buffer{}, "", "")
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, l.GetLevel())

	_, err = logging.NewWithOutput(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)

	_, err = logging.NewWithOutput(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
