package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/throwclay/throwclay/internal/audit"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"github.com/throwclay/throwclay/internal/auth"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/authorization"
	"github.com/throwclay/throwclay/internal/cache"
	"github.com/throwclay/throwclay/internal/class"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/invite"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
	"github.com/throwclay/throwclay/internal/kiln"
	kilndomain "github.com/throwclay/throwclay/internal/kiln/domain"
	"github.com/throwclay/throwclay/internal/messaging"
	messagingdomain "github.com/throwclay/throwclay/internal/messaging/domain"
	"github.com/throwclay/throwclay/internal/observability"
	obsmiddleware "github.com/throwclay/throwclay/internal/observability/logger"
	obsmetrics "github.com/throwclay/throwclay/internal/observability/metrics"
	obstracing "github.com/throwclay/throwclay/internal/observability/tracing"
	"github.com/throwclay/throwclay/internal/providers/email"
	"github.com/throwclay/throwclay/internal/providers/pdf"
	"github.com/throwclay/throwclay/internal/ratelimit"
	"github.com/throwclay/throwclay/internal/review"
	reviewdomain "github.com/throwclay/throwclay/internal/review/domain"
	"github.com/throwclay/throwclay/internal/studio"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	cache.Module,
	email.Module,
	pdf.Module,
	studio.Module,
	invite.Module,
	class.Module,
	kiln.Module,
	review.Module,
	messaging.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	studioSvc       studiodomain.Service
	studioRepo      studiodomain.Repository
	inviteSvc       invitedomain.Service
	classSvc        classdomain.Service
	kilnSvc         kilndomain.Service
	reviewSvc       reviewdomain.Service
	messagingSvc    messagingdomain.Service
	membershipCache cache.MembershipCache
	limiter         *ratelimit.RequestLimiter
	metrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Engine          *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service `optional:"true"`
	StudioSvc       studiodomain.Service
	StudioRepo      studiodomain.Repository
	InviteSvc       invitedomain.Service
	ClassSvc        classdomain.Service
	KilnSvc         kilndomain.Service
	ReviewSvc       reviewdomain.Service
	MessagingSvc    messagingdomain.Service
	MembershipCache cache.MembershipCache     `optional:"true"`
	Limiter         *ratelimit.RequestLimiter `optional:"true"`
	Metrics         *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Engine,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		genID:           p.GenID,
		authsvc:         p.AuthSvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		studioSvc:       p.StudioSvc,
		studioRepo:      p.StudioRepo,
		inviteSvc:       p.InviteSvc,
		classSvc:        p.ClassSvc,
		kilnSvc:         p.KilnSvc,
		reviewSvc:       p.ReviewSvc,
		messagingSvc:    p.MessagingSvc,
		membershipCache: p.MembershipCache,
		limiter:         p.Limiter,
		metrics:         p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.Register)
		authGroup.POST("/login", s.LoginRateLimit(), s.Login)
		authGroup.POST("/logout", s.AuthRequired(), s.Logout)
		authGroup.GET("/me", s.AuthRequired(), s.Me)
		authGroup.PATCH("/me", s.AuthRequired(), s.UpdateMe)
		authGroup.POST("/change-password", s.AuthRequired(), s.ChangePassword)
	}

	api := r.Group("/api", s.AuthRequired())

	api.GET("/studios", s.ListStudios)
	api.POST("/studios", s.CreateStudio)
	api.POST("/invites/accept", s.AcceptInvite)
	api.POST("/invites/reject", s.RejectInvite)

	api.GET("/conversations", s.ListConversations)
	api.POST("/conversations", s.CreateConversation)
	api.GET("/conversations/:id/messages", s.ListMessages)
	api.POST("/conversations/:id/messages", s.SendMessage)
	api.PATCH("/conversations/:id/messages/:messageId", s.EditMessage)
	api.DELETE("/conversations/:id/messages/:messageId", s.DeleteMessage)
	api.POST("/conversations/:id/read", s.MarkConversationRead)

	st := api.Group("/studios/:id", s.StudioContext())
	{
		st.GET("", s.authorizeStudioAction(authorization.ObjectStudio, authorization.ActionStudioView), s.GetStudio)
		st.PATCH("", s.authorizeStudioAction(authorization.ObjectStudio, authorization.ActionStudioUpdate), s.UpdateStudio)
		st.DELETE("", s.authorizeStudioAction(authorization.ObjectStudio, authorization.ActionStudioDelete), s.DeleteStudio)
		st.GET("/dashboard", s.authorizeStudioAction(authorization.ObjectStudio, authorization.ActionStudioView), s.StudioDashboard)
		st.GET("/audit-logs", s.authorizeStudioAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)

		st.GET("/locations", s.authorizeStudioAction(authorization.ObjectLocation, authorization.ActionLocationView), s.ListLocations)
		st.POST("/locations", s.authorizeStudioAction(authorization.ObjectLocation, authorization.ActionLocationManage), s.CreateLocation)
		st.PATCH("/locations/:locationId", s.authorizeStudioAction(authorization.ObjectLocation, authorization.ActionLocationManage), s.UpdateLocation)
		st.DELETE("/locations/:locationId", s.authorizeStudioAction(authorization.ObjectLocation, authorization.ActionLocationManage), s.DeleteLocation)

		st.GET("/members", s.authorizeStudioAction(authorization.ObjectMembership, authorization.ActionMembershipView), s.ListMembers)
		st.PATCH("/members/:memberId", s.authorizeStudioAction(authorization.ObjectMembership, authorization.ActionMembershipUpdateRole), s.UpdateMemberRole)
		st.DELETE("/members/:memberId", s.authorizeStudioAction(authorization.ObjectMembership, authorization.ActionMembershipRemove), s.RemoveMember)

		st.GET("/invites", s.authorizeStudioAction(authorization.ObjectInvite, authorization.ActionInviteView), s.ListInvites)
		st.POST("/invites", s.authorizeStudioAction(authorization.ObjectInvite, authorization.ActionInviteCreate), s.InviteRateLimit(), s.CreateInvite)
		st.POST("/invites/:inviteId/revoke", s.authorizeStudioAction(authorization.ObjectInvite, authorization.ActionInviteRevoke), s.RevokeInvite)

		st.GET("/applications", s.authorizeStudioAction(authorization.ObjectApplication, authorization.ActionApplicationView), s.ListApplications)
		st.POST("/applications", s.Apply)
		st.POST("/applications/:applicationId/approve", s.authorizeStudioAction(authorization.ObjectApplication, authorization.ActionApplicationDecide), s.ApproveApplication)
		st.POST("/applications/:applicationId/reject", s.authorizeStudioAction(authorization.ObjectApplication, authorization.ActionApplicationDecide), s.RejectApplication)

		st.GET("/classes", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassView), s.ListClasses)
		st.POST("/classes", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassCreate), s.CreateClass)
		st.GET("/classes/:classId", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassView), s.GetClass)
		st.PATCH("/classes/:classId", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassUpdate), s.UpdateClass)
		st.DELETE("/classes/:classId", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassDelete), s.DeleteClass)
		st.GET("/classes/:classId/roster.pdf", s.authorizeStudioAction(authorization.ObjectRoster, authorization.ActionRosterExport), s.ExportRoster)

		st.GET("/classes/:classId/images", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassView), s.ListClassImages)
		st.POST("/classes/:classId/images", s.authorizeStudioAction(authorization.ObjectClassImage, authorization.ActionClassImageManage), s.AddClassImage)
		st.POST("/classes/:classId/images/:imageId/set-main", s.authorizeStudioAction(authorization.ObjectClassImage, authorization.ActionClassImageManage), s.SetMainClassImage)
		st.DELETE("/classes/:classId/images/:imageId", s.authorizeStudioAction(authorization.ObjectClassImage, authorization.ActionClassImageManage), s.DeleteClassImage)

		st.GET("/classes/:classId/pricing-tiers", s.authorizeStudioAction(authorization.ObjectClass, authorization.ActionClassView), s.ListPricingTiers)
		st.POST("/classes/:classId/pricing-tiers", s.authorizeStudioAction(authorization.ObjectPricingTier, authorization.ActionPricingTierManage), s.CreatePricingTier)
		st.PATCH("/classes/:classId/pricing-tiers/:tierId", s.authorizeStudioAction(authorization.ObjectPricingTier, authorization.ActionPricingTierManage), s.UpdatePricingTier)
		st.POST("/classes/:classId/pricing-tiers/:tierId/set-default", s.authorizeStudioAction(authorization.ObjectPricingTier, authorization.ActionPricingTierManage), s.SetDefaultPricingTier)
		st.DELETE("/classes/:classId/pricing-tiers/:tierId", s.authorizeStudioAction(authorization.ObjectPricingTier, authorization.ActionPricingTierManage), s.DeletePricingTier)

		st.GET("/classes/:classId/waitlist", s.authorizeStudioAction(authorization.ObjectWaitlist, authorization.ActionWaitlistView), s.ListWaitlist)
		st.POST("/classes/:classId/waitlist", s.JoinWaitlist)
		st.DELETE("/classes/:classId/waitlist/me", s.LeaveWaitlist)

		st.GET("/classes/:classId/reviews", s.ListClassReviews)
		st.POST("/classes/:classId/reviews", s.CreateClassReview)
		st.DELETE("/classes/:classId/reviews/:reviewId", s.DeleteReview)
		st.GET("/reviews", s.ListStudioReviews)
		st.POST("/reviews", s.CreateStudioReview)
		st.PATCH("/reviews/:reviewId", s.UpdateReview)
		st.DELETE("/reviews/:reviewId", s.DeleteReview)

		st.GET("/kilns", s.authorizeStudioAction(authorization.ObjectKiln, authorization.ActionKilnView), s.ListKilns)
		st.POST("/kilns", s.authorizeStudioAction(authorization.ObjectKiln, authorization.ActionKilnManage), s.CreateKiln)
		st.GET("/kilns/:kilnId", s.authorizeStudioAction(authorization.ObjectKiln, authorization.ActionKilnView), s.GetKiln)
		st.PATCH("/kilns/:kilnId", s.authorizeStudioAction(authorization.ObjectKiln, authorization.ActionKilnManage), s.UpdateKiln)
		st.DELETE("/kilns/:kilnId", s.authorizeStudioAction(authorization.ObjectKiln, authorization.ActionKilnManage), s.DeleteKiln)

		st.GET("/kilns/:kilnId/firings", s.authorizeStudioAction(authorization.ObjectFiring, authorization.ActionFiringView), s.ListFirings)
		st.POST("/kilns/:kilnId/firings", s.authorizeStudioAction(authorization.ObjectFiring, authorization.ActionFiringSchedule), s.ScheduleFiring)
		st.GET("/kilns/:kilnId/firings/:firingId", s.authorizeStudioAction(authorization.ObjectFiring, authorization.ActionFiringView), s.GetFiring)
		st.PATCH("/kilns/:kilnId/firings/:firingId", s.authorizeStudioAction(authorization.ObjectFiring, authorization.ActionFiringSchedule), s.UpdateFiringStatus)
	}
}

func zapError(err error) zap.Field {
	return zap.Error(err)
}
