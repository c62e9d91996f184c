package hpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hpmerr "hpmdfu/internal/errors"
	"hpmdfu/internal/metrics"
)

func TestEnsureManagementMode_AlreadyActive(t *testing.T) {
	st := newScripted()
	st.modes = []string{"DBMa"}
	d := New("hpm0", st)

	require.NoError(t, d.EnsureManagementMode(1, 0xdeadbeef))
	assert.Empty(t, st.issued(), "no commands when the port already reports DBMa")
	assert.Equal(t, []string{"R 1 03"}, st.ops)
}

func TestEnsureManagementMode_Enters(t *testing.T) {
	st := newScripted()
	st.modes = []string{"APP ", "DBMa"}
	mc := metrics.New()
	d := New("hpm0", st, WithMetrics(mc))

	require.NoError(t, d.EnsureManagementMode(0, 0xdeadbeef))
	assert.Equal(t, []string{"LOCK", "DBMa"}, st.issued())
	assert.Equal(t, 1, st.count("W 0 09 01"))
	assert.Equal(t, int64(1), mc.Snapshot().PortsUnlocked)
}

func TestEnsureManagementMode_StatusNotConfirmed(t *testing.T) {
	st := newScripted()
	st.modes = []string{"APP ", "APP "}
	d := New("hpm0", st)

	err := d.EnsureManagementMode(0, 1)
	require.ErrorIs(t, err, hpmerr.ErrModeNotEntered)
	assert.True(t, hpmerr.IsProtocol(err))
}

func TestEnsureManagementMode_CommandRefused(t *testing.T) {
	st := newScripted()
	st.modes = []string{"APP ", "DBMa"}
	st.results["DBMa"] = []byte{1}
	d := New("hpm0", st)

	err := d.EnsureManagementMode(0, 1)
	require.ErrorIs(t, err, hpmerr.ErrModeNotEntered)
}

func TestEnsureManagementMode_UnlockFails(t *testing.T) {
	st := newScripted()
	st.modes = []string{"APP "}
	st.results["LOCK"] = []byte{1}
	st.results["Gaid"] = []byte{1}
	d := New("hpm0", st)

	err := d.EnsureManagementMode(0, 1)
	require.ErrorIs(t, err, hpmerr.ErrUnlockFailed)
	assert.NotContains(t, st.issued(), "DBMa")
}

func TestExitManagementMode(t *testing.T) {
	st := newScripted()
	d := New("hpm0", st)
	require.NoError(t, d.ExitManagementMode())
	assert.Equal(t, []string{"W 0 09 00", "I 0 DBMa", "R 0 09"}, st.ops)

	st = newScripted()
	st.results["DBMa"] = []byte{4}
	d = New("hpm0", st)
	require.ErrorIs(t, d.ExitManagementMode(), hpmerr.ErrModeNotExited)
}
