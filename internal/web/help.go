package web

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"gbswap/internal/bitmap"
	"gbswap/internal/pixels"
	"gbswap/internal/session"
)

// HelpSection is one headed block inside a help panel.
type HelpSection struct {
	Heading string   `json:"heading"`
	Items   []string `json:"items"`
}

// HelpPanel is a static, collapsible block of explanatory text.
type HelpPanel struct {
	Title    string        `json:"title"`
	Sections []HelpSection `json:"sections"`
}

// Copy holds every user-facing string of the page for one language.
type Copy struct {
	Lang         string               `json:"lang"`
	PageTitle    string               `json:"page_title"`
	UploadLabel  string               `json:"upload_label"`
	SubmitLabel  string               `json:"submit_label"`
	Original     string               `json:"original"`
	Swapped      string               `json:"swapped"`
	InfoHeading  string               `json:"info_heading"`
	DownloadText string               `json:"download_text"`
	SuccessText  string               `json:"success_text"`
	Labels       bitmap.SummaryLabels `json:"labels"`
	Usage        HelpPanel            `json:"usage"`
	Technical    HelpPanel            `json:"technical"`
	Panels       []HelpPanel          `json:"-"`

	failures *failureText
}

// failureText translates cycle errors. A nil value means the session
// package's English messages are used as-is.
type failureText struct {
	extension string
	tooLarge  string
	decode    string
	layout    string
	other     string
}

// Message returns the user-visible text for a failed cycle.
func (c *Copy) Message(err error) string {
	if err == nil {
		return ""
	}
	if c.failures == nil {
		return session.UserMessage(err)
	}
	switch {
	case errors.Is(err, session.ErrUnsupportedExtension):
		return c.failures.extension
	case errors.Is(err, session.ErrTooLarge):
		return c.failures.tooLarge
	case errors.Is(err, bitmap.ErrDecode):
		return c.failures.decode
	case errors.Is(err, pixels.ErrUnsupportedLayout):
		return c.failures.layout
	default:
		return c.failures.other
	}
}

var supportedLanguages = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var copies = []Copy{
	{
		Lang:         "en",
		PageTitle:    "BMP green/blue channel swap",
		UploadLabel:  "Choose a BMP image",
		SubmitLabel:  "Swap channels",
		Original:     "Original",
		Swapped:      "Green and blue swapped",
		InfoHeading:  "Image details",
		DownloadText: "Download the processed BMP",
		SuccessText:  "Channel swap complete. Use the link above to download the result.",
		Labels:       bitmap.EnglishLabels,
		Usage: HelpPanel{
			Title: "How to use",
			Sections: []HelpSection{
				{Heading: "What it does", Items: []string{
					"Upload an image in BMP format.",
					"The green (G) and blue (B) channels are exchanged automatically.",
					"A new BMP image is generated and offered for download.",
				}},
				{Heading: "Effect", Items: []string{
					"Green areas of the original turn blue.",
					"Blue areas of the original turn green.",
					"Red areas stay essentially unchanged.",
				}},
				{Heading: "Formats", Items: []string{
					"Input: BMP image",
					"Output: BMP image",
				}},
			},
		},
		Technical: HelpPanel{
			Title: "Technical details",
			Sections: []HelpSection{
				{Heading: "How it works", Items: []string{
					"The bitmap is decoded into a height × width × channels sample buffer.",
					"Channel 1 (G) and channel 2 (B) of every pixel are exchanged.",
					"Alpha, when present, passes through untouched.",
					"The result is encoded back to BMP.",
				}},
				{Heading: "Limits", Items: []string{
					"Images with fewer than three color channels, such as 8-bit paletted or grayscale bitmaps, are rejected.",
					"Nothing is stored on the server; previews and the download are embedded in the response.",
				}},
			},
		},
	},
	{
		Lang:         "zh-Hans",
		PageTitle:    "BMP图片GB通道互换工具",
		UploadLabel:  "选择BMP图片文件",
		SubmitLabel:  "互换通道",
		Original:     "原始图片",
		Swapped:      "GB通道互换后",
		InfoHeading:  "图片信息",
		DownloadText: "下载处理后的BMP图片",
		SuccessText:  "GB通道互换完成！点击上方链接下载结果。",
		Labels: bitmap.SummaryLabels{
			Dimensions:   "尺寸",
			Mode:         "模式",
			Format:       "格式",
			BitsPerPixel: "位深",
			Channels:     "通道数",
			FileSize:     "文件大小",
		},
		failures: &failureText{
			extension: "请上传BMP格式的图片文件",
			tooLarge:  "文件过大，无法处理",
			decode:    "无法读取该文件，请确保上传的是有效的BMP图片",
			layout:    "处理失败，请确保上传的是有效的RGB图片",
			other:     "处理失败，请尝试其他图片",
		},
		Usage: HelpPanel{
			Title: "使用说明",
			Sections: []HelpSection{
				{Heading: "功能说明", Items: []string{
					"上传BMP格式的图片",
					"自动交换绿色(G)和蓝色(B)通道",
					"生成新的BMP图片并提供下载",
				}},
				{Heading: "效果说明", Items: []string{
					"原图中的绿色区域会变为蓝色",
					"原图中的蓝色区域会变为绿色",
					"红色区域基本保持不变",
				}},
				{Heading: "支持的格式", Items: []string{
					"输入：BMP格式图片",
					"输出：BMP格式图片",
				}},
			},
		},
		Technical: HelpPanel{
			Title: "技术细节",
			Sections: []HelpSection{
				{Heading: "实现原理", Items: []string{
					"将位图解码为 高 × 宽 × 通道 的采样缓冲区",
					"交换每个像素的G通道(索引1)和B通道(索引2)",
					"如有Alpha通道则保持不变",
					"重新编码并保存为BMP格式",
				}},
				{Heading: "限制", Items: []string{
					"少于三个颜色通道的图片（如8位调色板或灰度位图）无法处理",
					"服务器不保存任何数据，预览和下载内容直接嵌入响应中",
				}},
			},
		},
	},
}

func init() {
	for i := range copies {
		copies[i].Panels = []HelpPanel{copies[i].Usage, copies[i].Technical}
	}
}

// copyFor picks the page language. An explicit ?lang= wins over the
// Accept-Language header; anything unmatched falls back to English.
func copyFor(r *http.Request) *Copy {
	var prefs []language.Tag
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	_, index, _ := languageMatcher.Match(prefs...)
	if index < 0 || index >= len(copies) {
		index = 0
	}
	return &copies[index]
}
