package forward

const (
	codeInvalidContentType = "INVALID_CONTENT_TYPE"
	codeInvalidBody        = "INVALID_BODY"
	codeInvalidQueryParams = "INVALID_QUERY_PARAMS"
	codeInvalidPathParams  = "INVALID_PATH_PARAMS"
)
