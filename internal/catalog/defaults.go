package catalog

import "primoboost-workers/internal/models"

var defaultPlans = []models.Plan{
	{
		ID: "leader_plan", Name: "Leader Plan", Price: 6400, MRP: 12800, DiscountPercentage: 50,
		Duration: "One-time Purchase", Optimizations: 100, ScoreChecks: 100, DurationInHours: 8760,
		Tag: "Top Tier", TagColor: "text-purple-800 bg-purple-100", Gradient: "from-purple-500 to-indigo-500", Icon: "crown",
		Features: []string{"✅ 100 Resume Optimizations", "✅ 100 Score Checks", "❌ LinkedIn Messages", "❌ Guided Builds", "✅ Priority Support"},
	},
	{
		ID: "achiever_plan", Name: "Achiever Plan", Price: 3200, MRP: 6400, DiscountPercentage: 50,
		Duration: "One-time Purchase", Optimizations: 50, ScoreChecks: 50, DurationInHours: 8760,
		Tag: "Best Value", TagColor: "text-blue-800 bg-blue-100", Gradient: "from-blue-500 to-cyan-500", Icon: "zap",
		Features: []string{"✅ 50 Resume Optimizations", "✅ 50 Score Checks", "❌ LinkedIn Messages", "❌ Guided Builds", "✅ Standard Support"},
	},
	{
		ID: "accelerator_plan", Name: "Accelerator Plan", Price: 1600, MRP: 3200, DiscountPercentage: 50,
		Duration: "One-time Purchase", Optimizations: 25, ScoreChecks: 25, DurationInHours: 8760,
		Tag: "Great Start", TagColor: "text-green-800 bg-green-100", Gradient: "from-green-500 to-emerald-500", Icon: "rocket",
		Features: []string{"✅ 25 Resume Optimizations", "✅ 25 Score Checks", "❌ LinkedIn Messages", "❌ Guided Builds", "✅ Email Support"},
	},
	{
		ID: "starter_plan", Name: "Starter Plan", Price: 640, MRP: 1280, DiscountPercentage: 50,
		Duration: "One-time Purchase", Optimizations: 10, ScoreChecks: 10, DurationInHours: 8760,
		Tag: "Quick Boost", TagColor: "text-yellow-800 bg-yellow-100", Gradient: "from-yellow-500 to-orange-500", Icon: "target",
		Features: []string{"✅ 10 Resume Optimizations", "✅ 10 Score Checks", "❌ LinkedIn Messages", "❌ Guided Builds", "✅ Basic Support"},
	},
	{
		ID: "kickstart_plan", Name: "Kickstart Plan", Price: 320, MRP: 640, DiscountPercentage: 50,
		Duration: "One-time Purchase", Optimizations: 5, ScoreChecks: 5, DurationInHours: 8760,
		Tag: "Essential", TagColor: "text-red-800 bg-red-100", Gradient: "from-red-500 to-pink-500", Icon: "wrench",
		Features: []string{"✅ 5 Resume Optimizations", "✅ 5 Score Checks", "❌ LinkedIn Messages", "❌ Guided Builds", "❌ Priority Support"},
	},
}

var defaultAddOns = []models.AddOn{
	{ID: "jd_optimization_single_purchase", Name: "JD-Based Optimization (1 Use)", Price: 49, Type: "optimization", Quantity: 1},
	{ID: "resume_score_check_single_purchase", Name: "Resume Score Check (1 Use)", Price: 19, Type: "score_check", Quantity: 1},
}

// career_pro_max and lite_check are not in the default plan table; deployments
// that sell them add them under catalog.plans.
var defaultCoupons = []CouponRule{
	{Code: "fullsupport", PlanID: "career_pro_max", Percent: 100},
	{Code: "first100", PlanID: "lite_check", Percent: 100},
	{Code: "first500", PlanID: "lite_check", Percent: 98, GlobalLimit: 500},
	{Code: "worthyone", PlanID: "career_pro_max", Percent: 50},
	{Code: "vnkr50%", PlanID: "career_pro_max", Percent: 50},
	{Code: "vnk50", PlanID: "career_pro_max", Percent: 50},
	{Code: "diwali", Percent: 90},
}
