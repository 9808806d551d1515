package generator

import "time"

const (
	// DefaultTimeout は生成呼び出し 1 回あたりのタイムアウトの既定値です。
	DefaultTimeout = 120 * time.Second
	// DefaultCacheTTL は参照画像キャッシュの既定の有効期限です。
	DefaultCacheTTL = 30 * time.Minute

	cacheKeyReference = "reference:"
	squareAspectRatio = "1:1"
	maxReferenceBytes = 20 << 20
)
