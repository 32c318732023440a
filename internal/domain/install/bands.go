package install

import (
	"fmt"
	"sort"
)

// Band 某個階段在整體 [0,1] 進度軸上獨佔的區段
// 多項目階段的子進度會在 [Base, Base+Span) 內線性推進
type Band struct {
	Base float64
	Span float64
}

// End 區段右端點
func (b Band) End() float64 {
	return b.Base + b.Span
}

// Bands 各階段的進度區段配置
// 刻意採用分段線性而非全局等比，因為各階段的實際耗時並不均勻
type Bands map[Step]Band

// DefaultBands 默認的階段進度區段
func DefaultBands() Bands {
	return Bands{
		StepCheckEnvironment:         {Base: 0.00, Span: 0.05},
		StepDownloadPackage:          {Base: 0.05, Span: 0.15},
		StepInstallSecondaryA:        {Base: 0.20, Span: 0.25},
		StepInstallSecondaryB:        {Base: 0.45, Span: 0.25},
		StepLaunchSecondaryInstaller: {Base: 0.70, Span: 0.05},
		StepRunSecondaryInstall:      {Base: 0.75, Span: 0.25},
	}
}

// Validate 驗證所有區段都落在 [0,1] 且互不重疊
func (b Bands) Validate() error {
	type entry struct {
		step Step
		band Band
	}

	entries := make([]entry, 0, len(b))
	for step, band := range b {
		if band.Base < 0 || band.Span < 0 || band.End() > 1 {
			return fmt.Errorf("階段 %s 的進度區段越界: [%.2f, %.2f)", step, band.Base, band.End())
		}
		entries = append(entries, entry{step: step, band: band})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].band.Base < entries[j].band.Base
	})

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.band.Base < prev.band.End() {
			return fmt.Errorf("階段 %s 與 %s 的進度區段重疊", prev.step, cur.step)
		}
	}

	return nil
}
