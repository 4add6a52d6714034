package service

import (
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		// Domain services
		fx.Annotate(
			NewDeliveryService,
			fx.As(new(Deliverer)),
		),
		fx.Annotate(
			NewFanoutDispatcher,
			fx.As(new(Fanouter)),
		),
		fx.Annotate(
			NewPolicyService,
			fx.As(new(Policier)),
		),
		fx.Annotate(
			NewMessengerService,
			fx.As(new(Messenger)),
		),
		fx.Annotate(
			NewReconcilerService,
			fx.As(new(Reconciler)),
		),
		fx.Annotate(
			NewAuthService,
			fx.As(new(Auther)),
		),
	),
)
