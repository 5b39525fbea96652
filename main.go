package main

import (
	"estatehub-server/routes"
	"estatehub-server/storage"
	"estatehub-server/utils"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()

	// CORS for the dashboard SPA
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// Tokens are issued by the identity service; this server only verifies.
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	buyer := app.Party("/api/buyer/interactions")
	{
		buyer.Use(accessTokenVerifierMiddleware, utils.BuyerOnlyMiddleware)
		buyer.Get("/check", routes.CheckInteractionQuota)
		buyer.Post("/record", routes.RecordInteraction)
	}

	seller := app.Party("/api/seller")
	{
		seller.Use(accessTokenVerifierMiddleware, utils.SellerOnlyMiddleware)
		seller.Get("/leads", routes.SellerListLeads)
	}

	properties := app.Party("/api/properties")
	{
		properties.Use(accessTokenVerifierMiddleware, utils.SellerOnlyMiddleware)
		properties.Post("/{id:uint}/images", routes.UploadPropertyImage)
	}

	admin := app.Party("/api/admin/moderation-queue")
	{
		admin.Use(accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
		admin.Get("/list", routes.ListModerationQueue)
		admin.Post("/approve", routes.ApproveModerationItem)
		admin.Post("/reject", routes.RejectModerationItem)
	}

	// Approved images are served straight off the upload directory.
	app.HandleDir("/uploads", iris.Dir(storage.UploadDir()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	log.Println("🚀 EstateHub server listening on port", port)
	app.Listen(":" + port)
}
