package models

type CreateBatchResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FilesCount int    `json:"files_count"`
}

type BatchStatusResponse struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	Progress     Progress    `json:"progress"`
	Dropped      int         `json:"dropped"`
	Warnings     []string    `json:"warnings,omitempty"`
	Statistics   *Statistics `json:"statistics,omitempty"`
	ReportURL    string      `json:"report_url,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
}

type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

type Statistics struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean_grade"`
	Max   int     `json:"max_grade"`
	Min   int     `json:"min_grade"`
}
