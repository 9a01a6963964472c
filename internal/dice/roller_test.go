package dice_test

import (
	"testing"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	mockdice "github.com/KirkDiggler/initiative-tracker/internal/dice/mock"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRoller_Roll(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		count      int
		sides      int
		bonus      int
		wantTotal  int
		wantRolls  []int
		wantCrit   bool
		wantErr    bool
	}{
		{
			name:       "single d20 roll",
			setupRolls: []int{15},
			count:      1,
			sides:      20,
			wantTotal:  15,
			wantRolls:  []int{15},
		},
		{
			name:       "2d6+3",
			setupRolls: []int{4, 5},
			count:      2,
			sides:      6,
			bonus:      3,
			wantTotal:  12,
			wantRolls:  []int{4, 5},
		},
		{
			name:       "natural 20",
			setupRolls: []int{20},
			count:      1,
			sides:      20,
			bonus:      5,
			wantTotal:  25,
			wantRolls:  []int{20},
			wantCrit:   true,
		},
		{
			name:       "not enough rolls",
			setupRolls: []int{10},
			count:      2,
			sides:      6,
			wantErr:    true,
		},
		{
			name:       "invalid roll for die size",
			setupRolls: []int{7},
			count:      1,
			sides:      6,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetRolls(tt.setupRolls)

			result, err := roller.Roll(tt.count, tt.sides, tt.bonus)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, tt.wantCrit, result.IsCrit)
		})
	}
}

func TestRollInitiative(t *testing.T) {
	tests := []struct {
		name      string
		mode      dice.Mode
		rolls     []int
		modifier  int
		wantTotal int
		wantRolls []int
	}{
		{
			name:      "normal",
			mode:      dice.ModeNormal,
			rolls:     []int{11},
			modifier:  3,
			wantTotal: 14,
			wantRolls: []int{11},
		},
		{
			name:      "advantage keeps the higher die",
			mode:      dice.ModeAdvantage,
			rolls:     []int{8, 17},
			modifier:  2,
			wantTotal: 19,
			wantRolls: []int{8, 17},
		},
		{
			name:      "disadvantage keeps the lower die",
			mode:      dice.ModeDisadvantage,
			rolls:     []int{17, 8},
			modifier:  -1,
			wantTotal: 7,
			wantRolls: []int{17, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetRolls(tt.rolls)

			result, err := dice.RollInitiative(roller, tt.mode, tt.modifier)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, 1, result.Count)
			assert.Zero(t, roller.Remaining())
		})
	}

	_, err := dice.RollInitiative(mockdice.NewManualMockRoller(), dice.Mode("sideways"), 0)
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]dice.Mode{
		"":             dice.ModeNormal,
		"normal":       dice.ModeNormal,
		"adv":          dice.ModeAdvantage,
		"Advantage":    dice.ModeAdvantage,
		"dis":          dice.ModeDisadvantage,
		"DISADVANTAGE": dice.ModeDisadvantage,
	} {
		got, err := dice.ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := dice.ParseMode("lucky")
	assert.Error(t, err)
}

func TestParseNotation(t *testing.T) {
	tests := []struct {
		input   string
		want    dice.Notation
		wantErr bool
	}{
		{input: "1d20", want: dice.Notation{Count: 1, Sides: 20}},
		{input: "d20", want: dice.Notation{Count: 1, Sides: 20}},
		{input: "2d6+3", want: dice.Notation{Count: 2, Sides: 6, Bonus: 3}},
		{input: "18d10 + 36", want: dice.Notation{Count: 18, Sides: 10, Bonus: 36}},
		{input: "1D8-1", want: dice.Notation{Count: 1, Sides: 8, Bonus: -1}},
		{input: "20", wantErr: true},
		{input: "0d6", wantErr: true},
		{input: "2d", wantErr: true},
		{input: "2d6+x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := dice.ParseNotation(tt.input)
			if tt.wantErr {
				assert.True(t, dnderr.IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "2d6+3", dice.Notation{Count: 2, Sides: 6, Bonus: 3}.String())
	assert.Equal(t, "1d8-1", dice.Notation{Count: 1, Sides: 8, Bonus: -1}.String())
}

func TestRollNotation(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{3, 6})

	result, err := dice.RollNotation(roller, "2d6+2")
	require.NoError(t, err)
	assert.Equal(t, 11, result.Total)
	assert.Equal(t, "11 [3,6] +2", result.String())
}

func TestSeededRoller_IsDeterministic(t *testing.T) {
	a := dice.NewSeededRoller(42)
	b := dice.NewSeededRoller(42)

	for i := 0; i < 20; i++ {
		ra, err := dice.RollInitiative(a, dice.ModeAdvantage, 1)
		require.NoError(t, err)
		rb, err := dice.RollInitiative(b, dice.ModeAdvantage, 1)
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}

func TestRandomRoller_BasicFunctionality(t *testing.T) {
	roller := dice.NewRandomRoller()

	result, err := roller.Roll(2, 6, 3)
	require.NoError(t, err)
	assert.Len(t, result.Rolls, 2)
	assert.GreaterOrEqual(t, result.Total, 5)
	assert.LessOrEqual(t, result.Total, 15)

	advResult, err := roller.RollWithAdvantage(20, 2)
	require.NoError(t, err)
	assert.Len(t, advResult.Rolls, 2, "advantage should roll twice")
	assert.Equal(t, max(advResult.Rolls[0], advResult.Rolls[1])+2, advResult.Total)

	disResult, err := roller.RollWithDisadvantage(20, 2)
	require.NoError(t, err)
	assert.Len(t, disResult.Rolls, 2, "disadvantage should roll twice")
	assert.Equal(t, min(disResult.Rolls[0], disResult.Rolls[1])+2, disResult.Total)

	_, err = roller.Roll(0, 6, 0)
	assert.True(t, dnderr.IsInvalidArgument(err))
}
