package access

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	userAddr  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func addr(a common.Address) *common.Address { return &a }

func TestDecide(t *testing.T) {
	lower := common.HexToAddress(strings.ToLower(ownerAddr.Hex()))

	tests := []struct {
		name      string
		connected *common.Address
		owner     *common.Address
		resolved  bool
		required  Role
		want      Decision
	}{
		{"public anonymous", nil, nil, false, Public, Allow},
		{"auth anonymous", nil, nil, false, Authenticated, Redirect},
		{"auth connected", addr(userAddr), nil, false, Authenticated, Allow},
		{"owner unresolved", addr(ownerAddr), nil, false, Owner, Pending},
		{"owner unresolved anonymous", nil, nil, false, Owner, Pending},
		{"owner anonymous", nil, addr(ownerAddr), true, Owner, Redirect},
		{"owner mismatch", addr(userAddr), addr(ownerAddr), true, Owner, Redirect},
		{"owner match", addr(ownerAddr), addr(ownerAddr), true, Owner, Allow},
		{"owner match case-insensitive", addr(lower), addr(ownerAddr), true, Owner, Allow},
		{"owner resolved but absent", addr(userAddr), nil, true, Owner, Redirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.connected, tt.owner, tt.resolved, tt.required))
		})
	}
}

func TestGuard_NavigatesOnce(t *testing.T) {
	calls := 0
	g := &Guard{Required: Owner, Navigate: func() { calls++ }}

	assert.Equal(t, Pending, g.Evaluate(Input{Connected: addr(userAddr)}))
	assert.Zero(t, calls)

	in := Input{Connected: addr(userAddr), Owner: addr(ownerAddr), OwnerResolved: true}
	assert.Equal(t, Redirect, g.Evaluate(in))
	assert.Equal(t, Redirect, g.Evaluate(in))
	assert.Equal(t, 1, calls)
}

func TestGuard_OverrideSuppressesNavigation(t *testing.T) {
	calls := 0
	g := &Guard{Required: Authenticated, Navigate: func() { calls++ }, Unauthorized: true}
	assert.Equal(t, Redirect, g.Evaluate(Input{}))
	assert.Zero(t, calls)
}

func TestGuard_AllowDoesNotNavigate(t *testing.T) {
	calls := 0
	g := &Guard{Required: Authenticated, Navigate: func() { calls++ }}
	assert.Equal(t, Allow, g.Evaluate(Input{Connected: addr(userAddr)}))
	assert.Zero(t, calls)
}

type ownerReader struct {
	calls int
	err   error
}

func (r *ownerReader) Owner(context.Context) (common.Address, error) {
	r.calls++
	if r.err != nil {
		return common.Address{}, r.err
	}
	return ownerAddr, nil
}

func TestOwnerLookup(t *testing.T) {
	r := &ownerReader{err: errors.New("rpc down")}
	l := NewOwnerLookup(r)

	assert.False(t, l.Input(nil).OwnerResolved)
	_, err := l.Resolve(context.Background())
	require.Error(t, err)
	assert.False(t, l.Input(nil).OwnerResolved)

	r.err = nil
	got, err := l.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, got)
	_, err = l.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, r.calls)

	in := l.Input(addr(ownerAddr))
	assert.True(t, in.OwnerResolved)
	assert.Equal(t, Allow, Decide(in.Connected, in.Owner, in.OwnerResolved, Owner))

	assert.Equal(t, "owner", Owner.String())
	assert.Equal(t, "pending", Pending.String())
}
