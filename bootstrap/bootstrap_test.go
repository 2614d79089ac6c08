package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/lnconsole/node"
)

type fakeConnector struct {
	recoverErr  error
	registerErr error
	recovered   int
	registered  int
	inviteCode  string
}

func (f *fakeConnector) RecoverNode(_ context.Context, network node.Network, _ []byte) (*node.Credentials, error) {
	f.recovered++
	if f.recoverErr != nil {
		return nil, f.recoverErr
	}
	return &node.Credentials{Network: network, WalletPassword: []byte("recovered")}, nil
}

func (f *fakeConnector) RegisterNode(_ context.Context, network node.Network, _ []byte, inviteCode string) (*node.Credentials, error) {
	f.registered++
	f.inviteCode = inviteCode
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &node.Credentials{Network: network, WalletPassword: []byte("registered")}, nil
}

func (f *fakeConnector) Connect(context.Context, *node.Config, []byte, *node.Credentials, node.EventListener) (node.Session, error) {
	return nil, errors.New("not supported")
}

func bootstrapConfig(connector node.Connector) *Config {
	return &Config{
		Connector:  connector,
		Network:    node.Bitcoin,
		InviteCode: "invite",
	}
}

func TestRecoverOrRegisterRecoversExistingNode(t *testing.T) {
	connector := &fakeConnector{}

	creds, isNew, err := RecoverOrRegister(context.Background(), bootstrapConfig(connector), []byte("seed"))
	require.NoError(t, err)

	assert.False(t, isNew)
	assert.Equal(t, []byte("recovered"), creds.WalletPassword)
	assert.Equal(t, 1, connector.recovered)
	assert.Zero(t, connector.registered)
}

func TestRecoverOrRegisterRegistersNewNode(t *testing.T) {
	connector := &fakeConnector{recoverErr: errors.New("no node")}

	creds, isNew, err := RecoverOrRegister(context.Background(), bootstrapConfig(connector), []byte("seed"))
	require.NoError(t, err)

	assert.True(t, isNew)
	assert.Equal(t, []byte("registered"), creds.WalletPassword)
	assert.Equal(t, "invite", connector.inviteCode)
	assert.Equal(t, 1, connector.recovered)
	assert.Equal(t, 1, connector.registered)
}

func TestRecoverOrRegisterFailsWhenBothFail(t *testing.T) {
	registerErr := errors.New("invalid invite code")
	connector := &fakeConnector{
		recoverErr:  errors.New("unreachable"),
		registerErr: registerErr,
	}

	creds, isNew, err := RecoverOrRegister(context.Background(), bootstrapConfig(connector), []byte("seed"))
	require.Error(t, err)

	assert.Nil(t, creds)
	assert.False(t, isNew)
	assert.True(t, errors.Is(err, ErrBootstrapFailed))
	assert.True(t, errors.Is(err, registerErr))
	assert.Contains(t, err.Error(), "unreachable")
	assert.Equal(t, 1, connector.recovered)
}
