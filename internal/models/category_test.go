// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryLevelRank(t *testing.T) {
	assert.Equal(t, 0, LevelPrimary.Rank())
	assert.Equal(t, 1, LevelSecondary.Rank())
	assert.Equal(t, 2, LevelTertiary.Rank())
	assert.Equal(t, -1, CategoryLevel("QUATERNARY").Rank())
	assert.False(t, CategoryLevel("primary").Valid(), "levels are case-sensitive")
}

func TestValidParent(t *testing.T) {
	primary := &Category{Level: LevelPrimary}
	secondary := &Category{Level: LevelSecondary}
	tertiary := &Category{Level: LevelTertiary}

	tests := []struct {
		name   string
		level  CategoryLevel
		parent *Category
		want   bool
	}{
		{"root primary", LevelPrimary, nil, true},
		{"root secondary", LevelSecondary, nil, false},
		{"root tertiary", LevelTertiary, nil, false},
		{"secondary under primary", LevelSecondary, primary, true},
		{"tertiary under secondary", LevelTertiary, secondary, true},
		{"tertiary under primary skips a level", LevelTertiary, primary, false},
		{"primary under primary", LevelPrimary, primary, false},
		{"secondary under tertiary", LevelSecondary, tertiary, false},
		{"unknown level", CategoryLevel("X"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidParent(tt.level, tt.parent))
		})
	}
}
