package models

// Requests for the trend HTTP endpoints.

type PredictionsRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1,lte=30"`
}

type RecommendationsRequest struct {
	Topic string `query:"topic" json:"topic" validate:"required,max=200"`
}

type GenerateContentRequest struct {
	ContentType string `query:"content_type" json:"content_type" default:"all" validate:"oneof=video image all"`
	Topic       string `query:"topic" json:"topic" validate:"required,max=200"`
}
