package main

import "quizhub/internal/app"

// @title           QuizHub Auth API
// @version         1.0
// @description     Регистрация по одноразовым кодам и восстановление пароля.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
