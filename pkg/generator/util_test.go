package generator

import "testing"

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"ループバックは拒否", "http://127.0.0.1/a.png", true},
		{"プライベートIPは拒否", "http://10.0.0.8/a.png", true},
		{"リンクローカルは拒否", "http://169.254.169.254/latest/meta-data", true},
		{"未指定アドレスは拒否", "http://0.0.0.0/a.png", true},
		{"不許可スキーム", "gs://bucket/a.png", true},
		{"パース不能", "::not a url", true},
		{"公開IPは許可", "https://8.8.8.8/a.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			if tt.wantErr {
				if err == nil || safe {
					t.Errorf("expected rejection for %s", tt.url)
				}
				return
			}
			if err != nil || !safe {
				t.Errorf("expected %s to be allowed: %v", tt.url, err)
			}
		})
	}
}
