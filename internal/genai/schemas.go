package genai

import (
	"github.com/google/generative-ai-go/genai"
)

// Function declarations constrain the model to answer with arguments
// matching a fixed schema per content type, instead of free text.

const (
	fnSocialPost  = "save_social_post"
	fnBlogPost    = "save_blog_post"
	fnVideoScript = "save_video_script"
)

var socialPostTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        fnSocialPost,
		Description: "Record the generated social media post bundle for an affiliate product.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"socialPostTitle": {Type: genai.TypeString, Description: "Catchy post title"},
				"socialPostBody":  {Type: genai.TypeString, Description: "Full post body with emoji and hashtags"},
				"callToAction":    {Type: genai.TypeString, Description: "Short imperative CTA"},
				"postTemplates": {
					Type:        genai.TypeArray,
					Description: "Three alternative bodies: benefits focus, urgency, social proof",
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name": {Type: genai.TypeString},
							"body": {Type: genai.TypeString},
						},
						Required: []string{"name", "body"},
					},
				},
			},
			Required: []string{"socialPostTitle", "socialPostBody", "callToAction", "postTemplates"},
		},
	}},
}

var blogPostTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        fnBlogPost,
		Description: "Record a generated blog article.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":        {Type: genai.TypeString},
				"introduction": {Type: genai.TypeString},
				"sections": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"heading": {Type: genai.TypeString},
							"content": {Type: genai.TypeString},
						},
						Required: []string{"heading", "content"},
					},
				},
				"conclusion": {Type: genai.TypeString},
				"seoKeywords": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"title", "introduction", "sections", "conclusion"},
		},
	}},
}

var videoScriptTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        fnVideoScript,
		Description: "Record a generated video script.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":        {Type: genai.TypeString},
				"hook":         {Type: genai.TypeString, Description: "First three seconds"},
				"introduction": {Type: genai.TypeString},
				"mainPoints": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"callToAction": {Type: genai.TypeString},
				"outro":        {Type: genai.TypeString},
			},
			Required: []string{"title", "hook", "introduction", "mainPoints", "callToAction"},
		},
	}},
}
