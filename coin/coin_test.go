package coin

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitAsset struct{}

func testCoin(amount uint64) Coin[unitAsset] {
	return Coin[unitAsset]{id: uuid.New(), balance: Balance[unitAsset]{amount: amount}}
}

func sumValues(coins []Coin[unitAsset]) uint64 {
	var total uint64
	for i := range coins {
		total += coins[i].Value()
	}
	return total
}

func TestZero(t *testing.T) {
	a := Zero[unitAsset]()
	b := Zero[unitAsset]()

	assert.Zero(t, a.Value())
	assert.NotEqual(t, uuid.Nil, a.ID())
	assert.NotEqual(t, a.ID(), b.ID(), "every unit gets its own identity")
}

func TestCoin_Split(t *testing.T) {
	c := testCoin(100)

	split, err := c.Split(40)

	require.NoError(t, err)
	assert.Equal(t, uint64(60), c.Value())
	assert.Equal(t, uint64(40), split.Value())
	assert.NotEqual(t, c.ID(), split.ID(), "split unit gets a fresh identity")
	assert.NotEqual(t, uuid.Nil, split.ID())
}

func TestCoin_Split_Insufficient_Errors(t *testing.T) {
	c := testCoin(10)

	_, err := c.Split(11)

	require.ErrorIs(t, err, ErrInsufficientValue)
	assert.Equal(t, uint64(10), c.Value())
}

func TestCoin_SplitJoin_RoundTrip(t *testing.T) {
	c := testCoin(100)
	id := c.ID()

	split, err := c.Split(40)
	require.NoError(t, err)
	require.NoError(t, c.Join(&split))

	assert.Equal(t, uint64(100), c.Value(), "split then join must restore the value")
	assert.Equal(t, id, c.ID(), "the receiver keeps its identity")
	assert.Equal(t, uuid.Nil, split.ID(), "the joined unit is retired")
}

func TestCoin_Join_Self_Errors(t *testing.T) {
	c := testCoin(10)

	err := c.Join(&c)

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, uint64(10), c.Value())
}

func TestCoin_Join_Overflow_Errors(t *testing.T) {
	c := testCoin(math.MaxUint64)
	other := testCoin(1)

	err := c.Join(&other)

	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(1), other.Value())
	assert.NotEqual(t, uuid.Nil, other.ID(), "a failed join must not retire the argument")
}

func TestCoin_JoinAll(t *testing.T) {
	c := testCoin(10)
	others := []Coin[unitAsset]{testCoin(20), testCoin(30), testCoin(0)}

	err := c.JoinAll(&others[0], &others[1], &others[2])

	require.NoError(t, err)
	assert.Equal(t, uint64(60), c.Value())
	for i := range others {
		assert.Zero(t, others[i].Value())
		assert.Equal(t, uuid.Nil, others[i].ID())
	}
}

func TestCoin_JoinAll_Overflow_NothingDrained(t *testing.T) {
	c := testCoin(math.MaxUint64 - 10)
	a := testCoin(10)
	b := testCoin(1)

	err := c.JoinAll(&a, &b)

	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(math.MaxUint64-10), c.Value())
	assert.Equal(t, uint64(10), a.Value(), "overflow must be detected before any unit is drained")
	assert.Equal(t, uint64(1), b.Value())
}

func TestCoin_SplitInto(t *testing.T) {
	c := testCoin(100)

	parts, err := c.SplitInto([]uint64{10, 20, 30})

	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, uint64(10), parts[0].Value())
	assert.Equal(t, uint64(20), parts[1].Value())
	assert.Equal(t, uint64(30), parts[2].Value())
	assert.Equal(t, uint64(40), c.Value())
}

func TestCoin_SplitInto_Insufficient_NothingSplit(t *testing.T) {
	c := testCoin(50)

	_, err := c.SplitInto([]uint64{30, 30})

	require.ErrorIs(t, err, ErrInsufficientValue)
	assert.Equal(t, uint64(50), c.Value())
}

func TestCoin_SplitInto_OverflowingRequest_Errors(t *testing.T) {
	c := testCoin(50)

	_, err := c.SplitInto([]uint64{math.MaxUint64, 1})

	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(50), c.Value())
}

func TestCoin_DivideEqually(t *testing.T) {
	tests := []struct {
		name         string
		hold         uint64
		n            uint64
		wantParts    int
		wantEach     uint64
		wantOriginal uint64
	}{
		{
			// The remainder stays with the original, never a part.
			name:         "remainder retained",
			hold:         100,
			n:            3,
			wantParts:    2,
			wantEach:     33,
			wantOriginal: 34,
		},
		{
			name:         "even division",
			hold:         100,
			n:            4,
			wantParts:    3,
			wantEach:     25,
			wantOriginal: 25,
		},
		{
			name:         "one part is a no-op",
			hold:         100,
			n:            1,
			wantParts:    0,
			wantOriginal: 100,
		},
		{
			name:         "parts equal to value",
			hold:         4,
			n:            4,
			wantParts:    3,
			wantEach:     1,
			wantOriginal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCoin(tt.hold)

			parts, err := c.DivideEqually(tt.n)

			require.NoError(t, err)
			require.Len(t, parts, tt.wantParts)
			for i := range parts {
				assert.Equal(t, tt.wantEach, parts[i].Value())
			}
			assert.Equal(t, tt.wantOriginal, c.Value())
			assert.Equal(t, tt.hold, sumValues(parts)+c.Value(), "division must conserve value")
		})
	}
}

func TestCoin_DivideEqually_ZeroParts_Errors(t *testing.T) {
	c := testCoin(100)

	_, err := c.DivideEqually(0)

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, uint64(100), c.Value())
}

func TestCoin_DivideEqually_MorePartsThanValue_Errors(t *testing.T) {
	c := testCoin(2)

	_, err := c.DivideEqually(4)

	require.ErrorIs(t, err, ErrInsufficientValue)
	assert.Equal(t, uint64(2), c.Value())
}

func TestCoin_DivideEqually_ZeroUnit_Errors(t *testing.T) {
	c := testCoin(0)

	_, err := c.DivideEqually(1)

	require.ErrorIs(t, err, ErrInsufficientValue)
}

func TestFromBalance_IntoBalance_RoundTrip(t *testing.T) {
	b := Balance[unitAsset]{amount: 42}

	c := FromBalance(&b)
	assert.Zero(t, b.Value(), "wrapping drains the container")
	assert.Equal(t, uint64(42), c.Value())
	assert.NotEqual(t, uuid.Nil, c.ID())

	out := c.IntoBalance()
	assert.Equal(t, uint64(42), out.Value())
	assert.Zero(t, c.Value())
	assert.Equal(t, uuid.Nil, c.ID(), "unwrapping retires the identity")
}

func TestTake(t *testing.T) {
	b := Balance[unitAsset]{amount: 100}

	c, err := Take(&b, 30)

	require.NoError(t, err)
	assert.Equal(t, uint64(30), c.Value())
	assert.Equal(t, uint64(70), b.Value())
}

func TestTake_Insufficient_Errors(t *testing.T) {
	b := Balance[unitAsset]{amount: 10}

	_, err := Take(&b, 11)

	require.ErrorIs(t, err, ErrInsufficientValue)
	assert.Equal(t, uint64(10), b.Value())
}

func TestPut(t *testing.T) {
	b := Balance[unitAsset]{amount: 10}
	c := testCoin(15)

	err := Put(&b, &c)

	require.NoError(t, err)
	assert.Equal(t, uint64(25), b.Value())
	assert.Zero(t, c.Value())
	assert.Equal(t, uuid.Nil, c.ID())
}

func TestCoin_DestroyZero(t *testing.T) {
	c := testCoin(0)

	require.NoError(t, c.DestroyZero())
	assert.Equal(t, uuid.Nil, c.ID())
}

func TestCoin_DestroyZero_NonZero_Errors(t *testing.T) {
	c := testCoin(5)

	err := c.DestroyZero()

	require.ErrorIs(t, err, ErrNonZeroValue)
	assert.NotEqual(t, uuid.Nil, c.ID())
}
