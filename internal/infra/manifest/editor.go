package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"go.uber.org/zap"

	"github.com/Yat-Muk/lumen/internal/pkg/errors"
)

// Editor 清單編輯器接口
type Editor interface {
	// Patch 把依賴項插到 dependencies 對象的最前面
	// 返回是否發生了寫入；依賴已存在時是冪等 no-op
	Patch(ctx context.Context, path, id, version string) (bool, error)

	// Remove 刪除之前插入的依賴項
	// 返回是否發生了寫入；依賴不存在時是冪等 no-op
	Remove(ctx context.Context, path, id string) (bool, error)
}

// FileEditor 基於文本拼接的清單編輯器
// 宿主工具和版本控制都會 diff 這個文件，所以絕不做 Unmarshal -> Marshal
// 的往返（那會重排鍵序、改寫縮進），只做字節級的定點插入和刪除，
// 換行風格與 BOM 原樣保留
type FileEditor struct {
	logger *zap.Logger
}

// NewFileEditor 創建清單編輯器
func NewFileEditor(logger *zap.Logger) *FileEditor {
	return &FileEditor{logger: logger}
}

// Patch 插入依賴項
func (e *FileEditor) Patch(ctx context.Context, path, id, version string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Wrap(errors.ErrManifestNotFound, "MAN001",
				fmt.Sprintf("清單文件不存在: %s", path))
		}
		return false, errors.Wrap(err, "MAN002", "讀取清單文件失敗")
	}
	original := string(raw)

	newline := detectNewline(original)
	bom, body := stripUTF8BOM(normalizeNewlines(original))

	open, end, err := findDependenciesObject(body)
	if err != nil {
		return false, errors.Wrap(err, "MAN002", "清單格式異常")
	}

	// 冪等：依賴鍵已經出現在 dependencies 塊裏就什麼都不做
	if strings.Contains(body[open:end+1], `"`+id+`"`) {
		e.logger.Debug("依賴已存在，跳過清單修補",
			zap.String("id", id),
			zap.String("path", path),
		)
		return false, nil
	}

	hasMembers := strings.TrimSpace(body[open+1:end]) != ""
	member := `"` + id + `": "` + version + `"`

	var updated string
	if strings.Contains(body[open:end], "\n") {
		// 多行對象：作為獨立一行插在開括號之後
		indent := detectMemberIndent(body, open, end)
		line := member
		if hasMembers {
			line += ","
		}
		updated = body[:open+1] + "\n" + indent + line + body[open+1:]
	} else {
		// 單行對象：緊跟開括號內聯插入
		inline := member
		if hasMembers {
			inline += ", "
		}
		updated = body[:open+1] + inline + body[open+1:]
	}

	out := applyNewlineStyle(bom+updated, newline)
	e.logPreview(path, original, out)

	if err := e.writeAtomic(path, []byte(out)); err != nil {
		return false, errors.Wrap(err, "MAN002", "寫入清單文件失敗")
	}

	e.logger.Info("清單已修補",
		zap.String("id", id),
		zap.String("version", version),
		zap.String("path", path),
	)
	return true, nil
}

// Remove 刪除依賴項
func (e *FileEditor) Remove(ctx context.Context, path, id string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Wrap(errors.ErrManifestNotFound, "MAN001",
				fmt.Sprintf("清單文件不存在: %s", path))
		}
		return false, errors.Wrap(err, "MAN002", "讀取清單文件失敗")
	}
	original := string(raw)

	newline := detectNewline(original)
	bom, body := stripUTF8BOM(normalizeNewlines(original))

	open, end, err := findDependenciesObject(body)
	if err != nil {
		return false, errors.Wrap(err, "MAN002", "清單格式異常")
	}

	from, to, found := findMemberSpan(body, open, end, id)
	if !found {
		e.logger.Debug("依賴不存在，跳過清單清理",
			zap.String("id", id),
			zap.String("path", path),
		)
		return false, nil
	}

	updated := body[:from] + body[to:]
	out := applyNewlineStyle(bom+updated, newline)
	e.logPreview(path, original, out)

	if err := e.writeAtomic(path, []byte(out)); err != nil {
		return false, errors.Wrap(err, "MAN002", "寫入清單文件失敗")
	}

	e.logger.Info("清單依賴已移除",
		zap.String("id", id),
		zap.String("path", path),
	)
	return true, nil
}

// logPreview 把 unified diff 寫進調試日誌，便於排查宿主解析問題
func (e *FileEditor) logPreview(path, before, after string) {
	preview := strings.TrimSpace(udiff.Unified(
		filepath.Base(path)+" (當前)",
		filepath.Base(path)+" (修補後)",
		before,
		after,
	))
	e.logger.Debug("清單變更預覽", zap.String("diff", preview))
}

// writeAtomic 原子寫入，保留原文件權限
func (e *FileEditor) writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".manifest.*.tmp")
	if err != nil {
		return fmt.Errorf("創建臨時文件失敗: %w", err)
	}
	tmpName := tmpFile.Name()

	writeSuccess := false
	defer func() {
		if !writeSuccess {
			tmpFile.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("寫入數據失敗: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("同步磁盤失敗: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("關閉臨時文件失敗: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("設置文件權限失敗: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("替換清單文件失敗: %w", err)
	}

	writeSuccess = true
	return nil
}

// --- 文本定位 ---

// findDependenciesObject 定位根對象 dependencies 成員的花括號邊界
// 返回開括號與閉括號的字節下標
func findDependenciesObject(body string) (int, int, error) {
	depth := 0
	inString := false
	escaped := false
	strStart := -1

	for i := 0; i < len(body); i++ {
		ch := body[i]

		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch != '"' {
				continue
			}
			inString = false
			// 只認根對象的直接成員鍵
			if depth != 1 || body[strStart:i] != "dependencies" {
				continue
			}
			j := skipSpace(body, i+1)
			if j >= len(body) || body[j] != ':' {
				continue
			}
			j = skipSpace(body, j+1)
			if j >= len(body) || body[j] != '{' {
				continue
			}
			end, err := matchBrace(body, j)
			if err != nil {
				return 0, 0, err
			}
			return j, end, nil
		}

		switch ch {
		case '"':
			inString = true
			strStart = i + 1
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}

	return 0, 0, fmt.Errorf("找不到 dependencies 對象")
}

// matchBrace 從開括號找到配對的閉括號
func matchBrace(body string, open int) (int, error) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(body); i++ {
		ch := body[i]

		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return 0, fmt.Errorf("dependencies 對象未閉合")
}

// findMemberSpan 定位 dependencies 對象內名爲 id 的成員的刪除區間 [from, to)
// 區間覆蓋鍵、值與一側逗號；若成員獨佔一行則覆蓋整行（含換行）
func findMemberSpan(body string, open, end int, id string) (int, int, bool) {
	inString := false
	escaped := false
	strStart := -1
	depth := 0 // 相對 dependencies 對象的嵌套深度

	for i := open + 1; i < end; i++ {
		ch := body[i]

		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch != '"' {
				continue
			}
			inString = false
			if depth != 0 || body[strStart:i] != id {
				continue
			}
			j := skipSpace(body, i+1)
			if j >= end || body[j] != ':' {
				continue
			}

			keyStart := strStart - 1
			valueEnd, ok := scanValueEnd(body, skipSpace(body, j+1), end)
			if !ok {
				return 0, 0, false
			}
			from, to := memberSpan(body, open, end, keyStart, valueEnd)
			return from, to, true
		}

		switch ch {
		case '"':
			inString = true
			strStart = i + 1
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}

	return 0, 0, false
}

// scanValueEnd 掃過一個 JSON 值，返回值結束後的下標
func scanValueEnd(body string, start, limit int) (int, bool) {
	if start >= limit {
		return 0, false
	}
	if body[start] == '"' {
		escaped := false
		for i := start + 1; i < limit; i++ {
			if escaped {
				escaped = false
				continue
			}
			switch body[i] {
			case '\\':
				escaped = true
			case '"':
				return i + 1, true
			}
		}
		return 0, false
	}
	// 非字符串值：掃到逗號或對象結束
	for i := start; i < limit; i++ {
		if body[i] == ',' || body[i] == '}' {
			return i, true
		}
	}
	return limit, true
}

// memberSpan 把 [keyStart, valueEnd) 擴展成完整刪除區間：
// 吞掉一側逗號，成員獨佔一行時連行一起刪
func memberSpan(body string, open, end, keyStart, valueEnd int) (int, int) {
	from, to := keyStart, valueEnd

	// 後隨逗號（同一行內）一併刪除
	j := to
	for j < end && (body[j] == ' ' || body[j] == '\t') {
		j++
	}
	if j < end && body[j] == ',' {
		to = j + 1
	} else {
		// 它是最後一個成員：把前導逗號刪掉，保持 JSON 合法
		k := from - 1
		for k > open && isSpaceByte(body[k]) {
			k--
		}
		if k > open && body[k] == ',' {
			from = k
		}
	}

	// 刪除後整行只剩空白時，連同該行刪掉
	lineStart := strings.LastIndexByte(body[:from], '\n') + 1
	lineEnd := len(body)
	if idx := strings.IndexByte(body[to:], '\n'); idx >= 0 {
		lineEnd = to + idx
	}
	if strings.TrimSpace(body[lineStart:from]) == "" && strings.TrimSpace(body[to:lineEnd]) == "" {
		from = lineStart
		if lineEnd < len(body) {
			lineEnd++ // 含換行符
		}
		to = lineEnd
	}

	return from, to
}

// detectMemberIndent 探測成員行的縮進
// 優先沿用對象內第一個成員的縮進，空對象時在 dependencies 行縮進上加一級
func detectMemberIndent(body string, open, end int) string {
	inner := body[open+1 : end]
	for _, line := range strings.Split(inner, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return leadingWhitespace(line)
	}
	lineStart := strings.LastIndexByte(body[:open], '\n') + 1
	return leadingWhitespace(body[lineStart:open]) + "  "
}

// --- 文本工具 ---

func detectNewline(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	if strings.Contains(content, "\r") {
		return "\r"
	}
	return "\n"
}

func normalizeNewlines(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content
}

func applyNewlineStyle(content, newline string) string {
	if newline == "\n" {
		return content
	}
	return strings.ReplaceAll(content, "\n", newline)
}

func stripUTF8BOM(content string) (string, string) {
	if strings.HasPrefix(content, "\uFEFF") {
		return "\uFEFF", strings.TrimPrefix(content, "\uFEFF")
	}
	return "", content
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) {
		if line[i] != ' ' && line[i] != '\t' {
			break
		}
		i++
	}
	return line[:i]
}

func skipSpace(body string, i int) int {
	for i < len(body) && isSpaceByte(body[i]) {
		i++
	}
	return i
}

func isSpaceByte(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
