package models

import "errors"

// PostTemplate is one alternative body for a social post.
type PostTemplate struct {
	Name string `json:"name"` // e.g. "Foco em Benefícios", "Urgência"
	Body string `json:"body"`
}

// PostContent is the generated social post bundle for a product.
type PostContent struct {
	SocialPostTitle string         `json:"socialPostTitle"`
	SocialPostBody  string         `json:"socialPostBody"`
	AffiliateURL    string         `json:"affiliateUrl"` // final tracked link
	CallToAction    string         `json:"callToAction"`
	PostTemplates   []PostTemplate `json:"postTemplates"`
	ProductImageURL string         `json:"productImageUrl"`
}

// Validate rejects bundles the editor cannot work with.
func (p *PostContent) Validate() error {
	if p.SocialPostTitle == "" || p.SocialPostBody == "" {
		return errors.New("post content missing title or body")
	}
	if p.CallToAction == "" {
		return errors.New("post content missing call to action")
	}
	if len(p.PostTemplates) == 0 {
		return errors.New("post content missing templates")
	}
	return nil
}

// BlogSection is a heading plus its body text.
type BlogSection struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// BlogPost is a generated long-form article.
type BlogPost struct {
	Title        string        `json:"title"`
	Introduction string        `json:"introduction"`
	Sections     []BlogSection `json:"sections"`
	Conclusion   string        `json:"conclusion"`
	SEOKeywords  []string      `json:"seoKeywords"`
}

func (b *BlogPost) Validate() error {
	if b.Title == "" || b.Introduction == "" {
		return errors.New("blog post missing title or introduction")
	}
	if len(b.Sections) == 0 {
		return errors.New("blog post has no sections")
	}
	return nil
}

// VideoScript is a generated short- or long-form video script.
type VideoScript struct {
	Title        string   `json:"title"`
	Hook         string   `json:"hook"`
	Introduction string   `json:"introduction"`
	MainPoints   []string `json:"mainPoints"`
	CallToAction string   `json:"callToAction"`
	Outro        string   `json:"outro"`
}

func (v *VideoScript) Validate() error {
	if v.Title == "" || v.Hook == "" {
		return errors.New("video script missing title or hook")
	}
	if len(v.MainPoints) == 0 {
		return errors.New("video script has no main points")
	}
	return nil
}
