package errors

// Config errors

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content errors

func FrontMatterInvalid(file string, cause error) *SiteError {
	return Wrap(cause, CategoryValidation, SeverityFatal, "front matter invalid").
		WithContext("file", file)
}

func MarkdownFailed(file string, cause error) *SiteError {
	return Wrap(cause, CategoryMarkdown, SeverityFatal, "markdown render failed").
		WithContext("file", file)
}

func TemplateFailed(template, file string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template render failed").
		WithContext("template", template).
		WithContext("file", file)
}

// Pipeline errors

func StageFailed(pipeline, stage string, cause error) *SiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "stage failed").
		WithContext("pipeline", pipeline).
		WithContext("stage", stage)
}

func WriteFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "write failed").
		WithContext("path", path)
}

// Asset errors

func StylesFailed(file string, cause error) *SiteError {
	return Wrap(cause, CategoryAssets, SeverityError, "stylesheet compile failed").
		WithContext("file", file)
}

func ScriptsFailed(file string, cause error) *SiteError {
	return Wrap(cause, CategoryAssets, SeverityError, "script transpile failed").
		WithContext("file", file)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
