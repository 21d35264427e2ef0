package client

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/issuer"
	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/ledger"
)

var seededRand = rand.NewChaCha8([32]byte{21})

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := issuer.DefaultConfig()
	require.NoError(t, cfg.Validate())

	issuerKey := keys.MustGeneratePrivateKeyFromRand(seededRand).Public()
	svc := issuer.NewService(cfg, ledger.New(), issuerKey, nil, nil)
	server, err := issuer.NewServer(cfg, svc, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c
}

func requireCodeAndReason(t *testing.T, err error, code coinageerrors.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	gotCode, gotReason := coinageerrors.CodeAndReasonFrom(err)
	assert.Equal(t, code, gotCode)
	assert.Equal(t, reason, gotReason)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	_, err = New("ftp://issuer.example")
	require.Error(t, err)

	_, err = New("http://[::1")
	require.Error(t, err)
}

func TestClientAssetLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.CreateAsset(ctx, issuer.CreateAssetRequest{
		Symbol:    "CLA",
		Name:      "Client Asset",
		Decimals:  6,
		MaxSupply: 1_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "CLA", created.Symbol)
	assert.NotEmpty(t, created.Identifier)
	assert.Zero(t, created.TotalSupply)

	fetched, err := c.Asset(ctx, "CLA")
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	assets, err := c.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "CLA", assets[0].Symbol)

	minted, err := c.Mint(ctx, "CLA", 5_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), minted.Amount)
	assert.Equal(t, uint64(5_000), minted.TotalSupply)
	require.NotEmpty(t, minted.UnitID)

	unitID, err := uuid.Parse(minted.UnitID)
	require.NoError(t, err)

	burned, err := c.BurnUnit(ctx, "CLA", unitID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), burned.Amount)
	assert.Zero(t, burned.TotalSupply)

	_, err = c.Mint(ctx, "CLA", 900)
	require.NoError(t, err)
	partial, err := c.BurnAmount(ctx, "CLA", 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), partial.Amount)
	assert.Equal(t, uint64(500), partial.TotalSupply)

	desc, err := c.UpdateMetadata(ctx, "CLA", "name", "Renamed Asset")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Asset", desc.Name)

	report, err := c.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Conserved)
	require.Len(t, report.Assets, 1)
	assert.Equal(t, uint64(500), report.Assets[0].TotalSupply)

	require.NoError(t, c.Ready(ctx))
}

func TestClientFreezeFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateAsset(ctx, issuer.CreateAssetRequest{
		Symbol:    "CLF",
		Name:      "Client Frozen",
		Freezable: true,
	})
	require.NoError(t, err)

	addr := keys.MustGeneratePrivateKeyFromRand(seededRand).Public().Address().String()

	frozen, err := c.Freeze(ctx, "CLF", addr)
	require.NoError(t, err)
	assert.True(t, frozen.Frozen)
	assert.True(t, frozen.Changed)

	again, err := c.Freeze(ctx, "CLF", addr)
	require.NoError(t, err)
	assert.False(t, again.Changed)

	isFrozen, err := c.IsFrozen(ctx, "CLF", addr)
	require.NoError(t, err)
	assert.True(t, isFrozen)

	list, err := c.FrozenAddresses(ctx, "CLF")
	require.NoError(t, err)
	assert.Equal(t, []string{addr}, list)

	thawed, err := c.Thaw(ctx, "CLF", addr)
	require.NoError(t, err)
	assert.False(t, thawed.Frozen)
	assert.True(t, thawed.Changed)

	isFrozen, err = c.IsFrozen(ctx, "CLF", addr)
	require.NoError(t, err)
	assert.False(t, isFrozen)

	_, err = c.Thaw(ctx, "CLF", addr)
	requireCodeAndReason(t, err, coinageerrors.CodeFailedPrecondition, coinageerrors.ReasonFailedPreconditionNotFrozen)
}

func TestClientDecodesErrorEnvelopes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Asset(ctx, "GONE")
	requireCodeAndReason(t, err, coinageerrors.CodeNotFound, coinageerrors.ReasonNotFoundMissingAsset)

	_, err = c.CreateAsset(ctx, issuer.CreateAssetRequest{Symbol: "bad", Name: "Lowered"})
	requireCodeAndReason(t, err, coinageerrors.CodeInvalidArgument, coinageerrors.ReasonInvalidArgumentMalformedField)

	_, err = c.CreateAsset(ctx, issuer.CreateAssetRequest{Symbol: "DUP", Name: "First"})
	require.NoError(t, err)
	_, err = c.CreateAsset(ctx, issuer.CreateAssetRequest{Symbol: "DUP", Name: "Second"})
	requireCodeAndReason(t, err, coinageerrors.CodeAlreadyExists, coinageerrors.ReasonAlreadyExistsDuplicateAsset)

	_, err = c.Mint(ctx, "DUP", 0)
	requireCodeAndReason(t, err, coinageerrors.CodeInvalidArgument, coinageerrors.ReasonInvalidArgumentMalformedField)
}

func TestClientSurfacesNonEnvelopeFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Asset(context.Background(), "ANY")
	var reqErr RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
}
