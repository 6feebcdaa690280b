// Package docs provides Swagger documentation for the API.
package docs

// @title TaitanX Media Delivery API
// @version 1.0
// @description Rate-limited audio and video delivery API with caching and Telegram relay storage
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@taitanx.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /
// @schemes http https
