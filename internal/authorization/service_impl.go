package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/throwclay/throwclay/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectStudio      = "studio"
	ObjectLocation    = "location"
	ObjectMembership  = "membership"
	ObjectInvite      = "invite"
	ObjectApplication = "application"
	ObjectClass       = "class"
	ObjectClassImage  = "class_image"
	ObjectPricingTier = "pricing_tier"
	ObjectWaitlist    = "waitlist"
	ObjectRoster      = "roster"
	ObjectKiln        = "kiln"
	ObjectFiring      = "firing"
	ObjectReview      = "review"
	ObjectAuditLog    = "audit_log"
)

const (
	ActionStudioView   = "studio.view"
	ActionStudioUpdate = "studio.update"
	ActionStudioDelete = "studio.delete"

	ActionLocationView   = "location.view"
	ActionLocationManage = "location.manage"

	ActionMembershipView       = "membership.view"
	ActionMembershipUpdateRole = "membership.update_role"
	ActionMembershipRemove     = "membership.remove"

	ActionInviteView   = "invite.view"
	ActionInviteCreate = "invite.create"
	ActionInviteRevoke = "invite.revoke"

	ActionApplicationView   = "application.view"
	ActionApplicationDecide = "application.decide"

	ActionClassView   = "class.view"
	ActionClassCreate = "class.create"
	ActionClassUpdate = "class.update"
	ActionClassDelete = "class.delete"

	ActionClassImageManage  = "class_image.manage"
	ActionPricingTierManage = "pricing_tier.manage"

	ActionWaitlistView = "waitlist.view"

	ActionRosterExport = "roster.export"

	ActionKilnView   = "kiln.view"
	ActionKilnManage = "kiln.manage"

	ActionFiringView     = "firing.view"
	ActionFiringSchedule = "firing.schedule"

	ActionReviewModerate = "review.moderate"

	ActionAuditLogView = "audit_log.view"
)

// Service answers whether an actor may perform an action inside a studio.
type Service interface {
	Authorize(ctx context.Context, actor string, studioID string, object string, action string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, studioID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	studioID = strings.TrimSpace(studioID)
	if studioID == "" {
		return ErrInvalidStudio
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := s.resolveActor(ctx, actor, studioID)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, studioID, object, action)
		return err
	}

	domain := fmt.Sprintf("studio:%s", studioID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, studioID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, actorType, actorID, studioID, object, action)
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, studioID string) (string, string, string, *string, error) {
	if actor == "system" {
		return actor, "role:system", "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		parsedStudioID, err := snowflake.ParseString(studioID)
		userIDStr := userID.String()
		if err != nil || parsedStudioID == 0 {
			return actor, "", "user", &userIDStr, ErrInvalidStudio
		}
		role, err := s.roleForUser(ctx, parsedStudioID, userID)
		if err != nil {
			return actor, "", "user", &userIDStr, err
		}
		roleName := fmt.Sprintf("role:%s", strings.ToLower(role))
		return actor, roleName, "user", &userIDStr, nil
	}
	return "", "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, studioID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM studio_memberships
		 WHERE studio_id = ? AND user_id = ? AND status = 'active'
		 LIMIT 1`,
		studioID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, studioID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedStudioID, err := snowflake.ParseString(studioID)
	if err != nil || parsedStudioID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedStudioID, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":    object,
		"action":    action,
		"actor":     actorType,
		"studio_id": studioID,
		"subject":   actorSubject(actorType, actorID),
	})
}

func (s *ServiceImpl) auditGranted(ctx context.Context, actorType string, actorID *string, studioID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedStudioID, err := snowflake.ParseString(studioID)
	if err != nil || parsedStudioID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedStudioID, actorType, actorID, "authorization.granted", "authorization", &targetID, map[string]any{
		"object":    object,
		"action":    action,
		"actor":     actorType,
		"studio_id": studioID,
		"subject":   actorSubject(actorType, actorID),
	})
}

func actorSubject(actorType string, actorID *string) string {
	switch actorType {
	case "system":
		return "system"
	case "user":
		if actorID != nil && strings.TrimSpace(*actorID) != "" {
			return fmt.Sprintf("user:%s", strings.TrimSpace(*actorID))
		}
	}
	return ""
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionMembershipRemove, ActionMembershipUpdateRole, ActionInviteRevoke, ActionStudioDelete:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	memberPolicies := [][]string{
		{ObjectStudio, ActionStudioView},
		{ObjectLocation, ActionLocationView},
		{ObjectClass, ActionClassView},
		{ObjectKiln, ActionKilnView},
		{ObjectFiring, ActionFiringView},
	}

	instructorPolicies := append([][]string{
		{ObjectClass, ActionClassUpdate},
		{ObjectWaitlist, ActionWaitlistView},
		{ObjectRoster, ActionRosterExport},
		{ObjectFiring, ActionFiringSchedule},
	}, memberPolicies...)

	employeePolicies := append([][]string{
		{ObjectKiln, ActionKilnManage},
		{ObjectFiring, ActionFiringSchedule},
		{ObjectWaitlist, ActionWaitlistView},
	}, memberPolicies...)

	managerPolicies := append([][]string{
		{ObjectMembership, ActionMembershipView},
		{ObjectInvite, ActionInviteView},
		{ObjectInvite, ActionInviteCreate},
		{ObjectApplication, ActionApplicationView},
		{ObjectApplication, ActionApplicationDecide},
		{ObjectClass, ActionClassCreate},
		{ObjectClass, ActionClassUpdate},
		{ObjectClass, ActionClassDelete},
		{ObjectClassImage, ActionClassImageManage},
		{ObjectPricingTier, ActionPricingTierManage},
		{ObjectWaitlist, ActionWaitlistView},
		{ObjectRoster, ActionRosterExport},
		{ObjectLocation, ActionLocationManage},
		{ObjectKiln, ActionKilnManage},
		{ObjectFiring, ActionFiringSchedule},
	}, memberPolicies...)

	adminPolicies := append([][]string{
		{ObjectStudio, ActionStudioUpdate},
		{ObjectMembership, ActionMembershipUpdateRole},
		{ObjectMembership, ActionMembershipRemove},
		{ObjectInvite, ActionInviteRevoke},
		{ObjectReview, ActionReviewModerate},
		{ObjectAuditLog, ActionAuditLogView},
	}, managerPolicies...)

	ownerPolicies := append([][]string{
		{ObjectStudio, ActionStudioDelete},
	}, adminPolicies...)

	policies := make([][]string, 0, 128)
	appendRole := func(role string, rules [][]string) {
		for _, rule := range rules {
			policies = append(policies, []string{role, rule[0], rule[1]})
		}
	}
	appendRole("role:member", memberPolicies)
	appendRole("role:instructor", instructorPolicies)
	appendRole("role:employee", employeePolicies)
	appendRole("role:manager", managerPolicies)
	appendRole("role:admin", adminPolicies)
	appendRole("role:owner", ownerPolicies)
	appendRole("role:system", ownerPolicies)

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
