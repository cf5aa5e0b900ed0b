// Package gravatar はメールアドレスからアバター画像URLを導出する。
package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultSize はアバター画像のデフォルトサイズ（ピクセル）。
const DefaultSize = 80

// URL はメールアドレスからGravatarのアバターURLを導出する。
// メールアドレスは前後の空白を除去し小文字に正規化した上でSHA-256ハッシュ化する。
// 未登録のメールアドレスにはidenticonがフォールバックとして表示される。
func URL(email string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(hash[:]), size)
}
