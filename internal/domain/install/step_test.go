package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStep_Fraction 測試階段的線性進度位置
func TestStep_Fraction(t *testing.T) {
	t.Run("哨兵為零", func(t *testing.T) {
		assert.Equal(t, 0.0, StepNone.Fraction())
	})

	t.Run("首階段為零", func(t *testing.T) {
		assert.Equal(t, 0.0, StepCheckEnvironment.Fraction())
	})

	t.Run("末階段為一", func(t *testing.T) {
		assert.Equal(t, 1.0, StepComplete.Fraction())
	})

	t.Run("逐階段單調遞增", func(t *testing.T) {
		steps := []Step{
			StepCheckEnvironment,
			StepDownloadPackage,
			StepInstallSecondaryA,
			StepInstallSecondaryB,
			StepLaunchSecondaryInstaller,
			StepRunSecondaryInstall,
			StepComplete,
		}

		prev := -1.0
		for _, s := range steps {
			f := s.Fraction()
			assert.Greater(t, f, prev, "階段 %s 的進度位置應高於前一階段", s)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 1.0)
			prev = f
		}
	})
}

// TestStep_String 測試階段標識
func TestStep_String(t *testing.T) {
	assert.Equal(t, "check_environment", StepCheckEnvironment.String())
	assert.Equal(t, "complete", StepComplete.String())
	assert.Equal(t, "unknown", Step(99).String())
}

// TestStep_DisplayName 測試操作者可見名稱非空
func TestStep_DisplayName(t *testing.T) {
	for s := StepNone; s <= StepComplete; s++ {
		assert.NotEmpty(t, s.DisplayName())
	}
}
