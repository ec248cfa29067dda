package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raulisai/Gateway-IA/src/auth"
	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/vault"
)

func setupAdmin(t *testing.T) (*auth.KeyStore, *vault.Vault) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := vault.NewRedisClient(&config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	raw := make([]byte, 32)
	_, err = rand.Read(raw)
	require.NoError(t, err)
	cipher, err := vault.NewCipher(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	return auth.NewKeyStore(client), vault.New(client, cipher)
}

func TestRunAdmin_IssueThenRevoke(t *testing.T) {
	keys, credentials := setupAdmin(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runAdmin(ctx, &out, adminCommand{IssueKey: true, KeyName: "ci", Tenant: "t1"}, keys, credentials))

	key := regexp.MustCompile(`key:\s+(\S+)`).FindStringSubmatch(out.String())
	require.Len(t, key, 2)
	resolved, err := keys.Resolve(ctx, key[1])
	require.NoError(t, err)
	assert.Equal(t, "t1", resolved.Tenant)

	out.Reset()
	require.NoError(t, runAdmin(ctx, &out, adminCommand{RevokeKey: key[1]}, keys, credentials))
	assert.Contains(t, out.String(), "revoked")

	_, err = keys.Resolve(ctx, key[1])
	assert.ErrorIs(t, err, auth.ErrUnknownKey)

	err = runAdmin(ctx, &out, adminCommand{RevokeKey: key[1]}, keys, credentials)
	assert.ErrorIs(t, err, auth.ErrUnknownKey)
}

func TestRunAdmin_SetThenDeleteCredential(t *testing.T) {
	keys, credentials := setupAdmin(t)
	ctx := context.Background()
	var out bytes.Buffer

	set := adminCommand{SetCredential: true, Tenant: "t1", Provider: "openai", Credential: "sk-test"}
	require.NoError(t, runAdmin(ctx, &out, set, keys, credentials))

	providers, err := credentials.Providers(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"openai"}, providers)

	del := adminCommand{DeleteCredential: true, Tenant: "t1", Provider: "openai"}
	require.NoError(t, runAdmin(ctx, &out, del, keys, credentials))

	providers, err = credentials.Providers(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, providers)
}

func TestRunAdmin_RequiredFlags(t *testing.T) {
	keys, credentials := setupAdmin(t)
	var out bytes.Buffer

	err := runAdmin(context.Background(), &out, adminCommand{IssueKey: true}, keys, credentials)
	assert.EqualError(t, err, "-tenant is required")

	err = runAdmin(context.Background(), &out, adminCommand{DeleteCredential: true, Tenant: "t1"}, keys, credentials)
	assert.EqualError(t, err, "-provider is required")

	assert.False(t, adminCommand{Tenant: "t1"}.requested())
	assert.True(t, adminCommand{RevokeKey: "gw_x"}.requested())
}
