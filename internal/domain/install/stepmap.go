package install

// 次級安裝器回報的步驟代碼邊界
// 0..10 為安裝過程中的細粒度工作，11 表示全部完成
const (
	SecondaryStepFirst    = 0
	SecondaryStepFinished = 11
)

// MapSecondaryStep 將次級安裝器的數字步驟代碼折疊到粗粒度階段
// 未知代碼一律視為仍在執行中，永不失敗
func MapSecondaryStep(code int) Step {
	if code == SecondaryStepFinished {
		return StepComplete
	}
	return StepRunSecondaryInstall
}
