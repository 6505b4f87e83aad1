package domain

// L2Manifest 面向展示的精简清单结构
type L2Manifest struct {
	Label            string             `json:"label"`
	Title            string             `json:"title"`
	Format           string             `json:"format"`
	ClaimGenerator   ClaimGenerator     `json:"claimGenerator"`
	Signature        *Signature         `json:"signature,omitempty"`
	Producer         string             `json:"producer,omitempty"`
	Actions          []Action           `json:"editsAndActivity"`
	Ingredients      []Ingredient       `json:"ingredients"`
	IsAIGenerated    bool               `json:"isAIGenerated"`
	ValidationStatus []ValidationStatus `json:"validationStatus"`
}

// ClaimGenerator 生成声明的软件
type ClaimGenerator struct {
	Value   string `json:"value"`
	Product string `json:"product"`
}

// Signature 签名信息
type Signature struct {
	Issuer       string `json:"issuer"`
	Time         string `json:"isoDateString,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// Action 编辑与活动记录
type Action struct {
	Label             string `json:"label"`
	SoftwareAgent     string `json:"softwareAgent,omitempty"`
	DigitalSourceType string `json:"digitalSourceType,omitempty"`
	When              string `json:"when,omitempty"`
}

// Ingredient 素材成分
type Ingredient struct {
	Title            string `json:"title"`
	Format           string `json:"format"`
	Relationship     string `json:"relationship,omitempty"`
	HasManifest      bool   `json:"hasManifest"`
	ValidationErrors int    `json:"validationErrors"`
}

// ValidationStatus 校验状态条目
type ValidationStatus struct {
	Code        string `json:"code"`
	URL         string `json:"url,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}
