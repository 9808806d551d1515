package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// RedesignInput はリデザイン指示の組み立てに使う入力です。
// 画像はすべて正規化済みであることを前提とします。
type RedesignInput struct {
	Primary    domain.ImageAsset
	Prompt     string
	Product    domain.ImageAsset
	Background domain.ImageAsset
	IsSketched bool
}

// RotateInput はカメラ回転指示の入力です。
type RotateInput struct {
	Primary   domain.ImageAsset
	Direction domain.Direction
}

// Composition は組み立て済みのリクエストです。
// Images はモデルに渡す順序どおりに並び、テキストは最後に付加されます。
type Composition struct {
	Images []domain.ImageAsset
	Text   string
}

// ImageCount は画像パーツの数を返します。
func (c Composition) ImageCount() int {
	return len(c.Images)
}

// rule は (predicate, block) の組です。image が nil でなければ、
// ブロックの前に画像パーツを 1 枚追加し、その位置を Ordinal として参照させます。
type rule struct {
	name  string
	when  func(RedesignInput) bool
	image func(RedesignInput) domain.ImageAsset
	tmpl  *template.Template
}

type blockData struct {
	Prompt    string
	Ordinal   string
	Direction domain.Direction
}

// redesignRules は適用順に並んだ指示ブロックです。順序を変えてはいけません。
var redesignRules = []rule{
	{
		name: "base",
		when: always,
		tmpl: mustParse("base", baseTemplate),
	},
	{
		name: "sketch",
		when: func(in RedesignInput) bool { return in.IsSketched },
		tmpl: mustParse("sketch", sketchTemplate),
	},
	{
		name:  "product",
		when:  func(in RedesignInput) bool { return !in.Product.IsZero() },
		image: func(in RedesignInput) domain.ImageAsset { return in.Product },
		tmpl:  mustParse("product", productTemplate),
	},
	{
		name:  "background",
		when:  func(in RedesignInput) bool { return !in.Background.IsZero() },
		image: func(in RedesignInput) domain.ImageAsset { return in.Background },
		tmpl:  mustParse("background", backgroundTemplate),
	},
	{
		name: "output",
		when: always,
		tmpl: mustParse("output", outputTemplate),
	},
}

var rotation = mustParse("rotation", rotationTemplate)

func always(RedesignInput) bool { return true }

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// Redesign はリデザイン用のリクエストを組み立てます。
func Redesign(in RedesignInput) (Composition, error) {
	if in.Primary.IsZero() {
		return Composition{}, fmt.Errorf("%w: primary image is empty", domain.ErrDecode)
	}
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.Prompt == "" && !in.IsSketched && in.Product.IsZero() && in.Background.IsZero() {
		return Composition{}, domain.ErrEmptyPrompt
	}

	comp := Composition{Images: []domain.ImageAsset{in.Primary}}
	blocks := make([]string, 0, len(redesignRules))

	for _, r := range redesignRules {
		if !r.when(in) {
			continue
		}
		data := blockData{Prompt: in.Prompt}
		if r.image != nil {
			comp.Images = append(comp.Images, r.image(in))
			data.Ordinal = Ordinal(len(comp.Images))
		}
		text, err := render(r.tmpl, data)
		if err != nil {
			return Composition{}, fmt.Errorf("%s block: %w", r.name, err)
		}
		blocks = append(blocks, text)
	}

	comp.Text = strings.Join(blocks, "\n\n")
	return comp, nil
}

// Rotate はカメラ回転用のリクエストを組み立てます。
func Rotate(in RotateInput) (Composition, error) {
	if in.Primary.IsZero() {
		return Composition{}, fmt.Errorf("%w: primary image is empty", domain.ErrDecode)
	}
	if _, err := domain.ParseDirection(string(in.Direction)); err != nil {
		return Composition{}, err
	}
	text, err := render(rotation, blockData{Direction: in.Direction})
	if err != nil {
		return Composition{}, fmt.Errorf("rotation block: %w", err)
	}
	return Composition{Images: []domain.ImageAsset{in.Primary}, Text: text}, nil
}

func render(t *template.Template, data blockData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var ordinals = []string{"first", "second", "third", "fourth", "fifth"}

// Ordinal は 1 始まりの位置を英語の序数に変換します。
func Ordinal(n int) string {
	if n >= 1 && n <= len(ordinals) {
		return ordinals[n-1]
	}
	return fmt.Sprintf("#%d", n)
}
