package constants

const (
	// ==========================================
	// 主菜單 (Main Menu)
	// ==========================================
	KeyMain_Install   = "1" // 安裝 Lumen Suite
	KeyMain_EnvCheck  = "2" // 環境檢查
	KeyMain_Settings  = "3" // 偏好設定
	KeyMain_Backup    = "4" // 清單備份
	KeyMain_About     = "5" // 關於 Lumen
	KeyMain_Uninstall = "u" // 解除安裝
	KeyMain_Quit      = "q" // 退出程序

	// ==========================================
	// 安裝嚮導 (Install Wizard)
	// ==========================================
	KeyWizard_Start     = "y" // 開始安裝
	KeyWizard_Workspace = "1" // 修改工作區目錄

	// ==========================================
	// 偏好設定 (Settings)
	// ==========================================
	KeySettings_Workspace     = "1" // 工作區目錄
	KeySettings_BootstrapVer  = "2" // 引導套件版本
	KeySettings_CoreRepo      = "3" // lumen-core 倉庫地址
	KeySettings_AssetsRepo    = "4" // lumen-assets 倉庫地址
	KeySettings_TickInterval  = "5" // 輪詢節拍間隔 (ms)
	KeySettings_SettleTicks   = "6" // 推定安定節拍數
	KeySettings_MaxAttempts   = "7" // 輪詢節拍上限
	KeySettings_CloneDepth    = "8" // git 克隆深度
	KeySettings_Save          = "s" // 保存設定
	KeySettings_Reset         = "r" // 放棄未保存的修改

	// ==========================================
	// 清單備份 (Backup Menu)
	// ==========================================
	KeyBackup_Create  = "1" // 備份當前清單
	KeyBackup_Restore = "2" // 恢復指定備份
	KeyBackup_Delete  = "3" // 刪除指定備份

	// ==========================================
	// 關於 (About)
	// ==========================================
	KeyAbout_CheckUpdate = "u" // 檢查更新

	// ==========================================
	// 卸載選項 (Uninstall)
	// ==========================================
	KeyUninstall_KeepConfig  = "1"         // 保留設定文件
	KeyUninstall_KeepBackup  = "2"         // 保留備份文件
	KeyUninstall_KeepLog     = "3"         // 保留日誌文件
	KeyUninstall_ConfirmStep = "c"         // 繼續卸載
	KeyUninstall_ConfirmWord = "UNINSTALL" // 最終確認口令
)
