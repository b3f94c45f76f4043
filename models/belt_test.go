package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeltForBoundaries(t *testing.T) {
	cases := []struct {
		capital int
		belt    string
	}{
		{0, "white"},
		{299, "white"},
		{300, "yellow"},
		{799, "yellow"},
		{800, "orange"},
		{1500, "green"},
		{2999, "green"},
		{3000, "blue"},
		{6000, "purple"},
		{10000, "brown"},
		{19999, "brown"},
		{20000, "black"},
		{1000000, "black"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.belt, BeltFor(tc.capital).Name, "capital %d", tc.capital)
	}
}

func TestBeltForNegativeCapital(t *testing.T) {
	assert.Equal(t, "white", BeltFor(-50).Name)
}

func TestBeltsAreOrdered(t *testing.T) {
	for i := 1; i < len(Belts); i++ {
		assert.Greater(t, Belts[i].MinPoints, Belts[i-1].MinPoints)
	}
}

func TestRarityHelpers(t *testing.T) {
	assert.True(t, RarityAtLeast(RarityEpic, RarityRare))
	assert.True(t, RarityAtLeast(RarityRare, RarityRare))
	assert.False(t, RarityAtLeast(RarityCommon, RarityRare))
	assert.Equal(t, RarityMythical, MaxRarity(RarityRare, RarityMythical))
	assert.Equal(t, RarityLegendary, MaxRarity(RarityLegendary, RarityEpic))
}

func TestBaseAwardFor(t *testing.T) {
	assert.Equal(t, 50, BaseAwardFor(CategoryShrine))
	assert.Equal(t, 70, BaseAwardFor(CategoryFestival))
	assert.Equal(t, 40, BaseAwardFor(CategoryGarden))
	assert.Equal(t, 50, BaseAwardFor("unknown"))
}

func TestShrineHighRarity(t *testing.T) {
	assert.True(t, (&Shrine{Rarity: RarityLegendary}).HighRarity())
	assert.True(t, (&Shrine{Rarity: RarityMythical}).HighRarity())
	assert.False(t, (&Shrine{Rarity: RarityEpic}).HighRarity())
}
