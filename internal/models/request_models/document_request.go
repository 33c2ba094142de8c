package request_models

// UploadDocumentForm is bound from multipart/form-data; the file itself is the "document" part.
type UploadDocumentForm struct {
	Name string   `form:"name" binding:"required,max=64"`
	Tags []string `form:"tags"`
}
