package install

// Step 安裝流程的粗粒度階段，數值順序即推進順序
// 一次運行內階段只會前進不會後退，唯一的例外是 Tracker.Reset
type Step int

const (
	StepNone Step = iota
	StepCheckEnvironment
	StepDownloadPackage
	StepInstallSecondaryA
	StepInstallSecondaryB
	StepLaunchSecondaryInstaller
	StepRunSecondaryInstall
	StepComplete
)

// stepCount 不含 StepNone 哨兵的階段總數
const stepCount = int(StepComplete)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepCheckEnvironment:
		return "check_environment"
	case StepDownloadPackage:
		return "download_package"
	case StepInstallSecondaryA:
		return "install_secondary_a"
	case StepInstallSecondaryB:
		return "install_secondary_b"
	case StepLaunchSecondaryInstaller:
		return "launch_secondary_installer"
	case StepRunSecondaryInstall:
		return "run_secondary_install"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// DisplayName 給操作者看的階段名稱
func (s Step) DisplayName() string {
	switch s {
	case StepNone:
		return "待命"
	case StepCheckEnvironment:
		return "檢查環境"
	case StepDownloadPackage:
		return "註冊引導套件"
	case StepInstallSecondaryA:
		return "下載 Lumen Core"
	case StepInstallSecondaryB:
		return "下載 Lumen Assets"
	case StepLaunchSecondaryInstaller:
		return "啟動次級安裝器"
	case StepRunSecondaryInstall:
		return "執行套件安裝"
	case StepComplete:
		return "安裝完成"
	default:
		return "未知階段"
	}
}

// Fraction 階段在整體進度軸上的線性位置
// 按不含哨兵的序數計算：ordinal / (階段總數 - 1)
func (s Step) Fraction() float64 {
	if s <= StepNone {
		return 0
	}
	if s >= StepComplete {
		return 1
	}
	return float64(int(s)-1) / float64(stepCount-1)
}
