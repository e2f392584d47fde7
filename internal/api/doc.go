// Package api wraps the REST backend's endpoints on top of httpclient.
//
// AuthService covers the authentication contract (login, signup, refresh,
// logout, current user). AgentService, TemplateService and QuestionService are
// thin CRUD wrappers over the domain endpoints; the backend owns their schemas
// and the types here only carry the fields the console shows and edits.
//
// Every call goes through the same *httpclient.Client, so the session
// interceptors apply to domain calls exactly as they do to FetchUserData.
package api
