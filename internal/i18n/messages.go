package i18n

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":                "Invalid request",
		"error.unauthorized":               "Please sign in first",
		"error.forbidden":                  "You do not have permission to perform this action",
		"error.not_found":                  "Resource not found",
		"error.internal":                   "Internal server error",
		"error.rate_limited":               "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":     "Rate limiter unavailable, please retry later",
		"error.jwt_secret_missing":         "Token secret is not configured",
		"error.auth_header_missing":        "Authorization header is missing",
		"error.auth_header_invalid":        "Authorization header is invalid",
		"error.token_invalid":              "Token is invalid or expired",
		"error.token_revoked":              "Token has been revoked, please sign in again",
		"error.user_id_invalid":            "Invalid user id",
		"error.user_id_type_invalid":       "Invalid user id type",
		"error.user_disabled":              "This account has been deactivated",
		"error.user_not_found":             "User not found",
		"error.admin_required":             "Admin access required",
		"error.email_invalid":              "Email is invalid",
		"error.email_exists":               "An account with this email already exists",
		"error.full_name_too_short":        "Full name must be at least 2 characters long",
		"error.password_min_length":        "Password must be at least %d characters long",
		"error.password_require_upper":     "Password must contain an uppercase letter",
		"error.password_require_lower":     "Password must contain a lowercase letter",
		"error.password_require_number":    "Password must contain a number",
		"error.password_require_special":   "Password must contain a special character",
		"error.password_weak":              "Password does not meet the security requirements",
		"error.invalid_credentials":        "Invalid email or password",
		"error.oauth_account":              "This account uses social sign-in, please use that button to log in",
		"error.oauth_not_configured":       "This sign-in provider is not configured",
		"error.oauth_state_invalid":        "Sign-in session expired, please try again",
		"error.oauth_exchange_failed":      "Sign-in with the provider failed",
		"error.reset_token_invalid":        "Invalid or expired reset link",
		"error.reset_token_expired":        "This reset link has expired. Please request a new one.",
		"error.captcha_required":           "Please complete the captcha",
		"error.captcha_invalid":            "Captcha is incorrect",
		"error.product_not_found":          "Product not found",
		"error.category_not_found":         "Category not found",
		"error.product_unavailable":        "Product is unavailable or out of stock",
		"error.quantity_invalid":           "Quantity is invalid",
		"error.cart_item_not_found":        "Cart item not found",
		"error.cart_empty":                 "Cart is empty",
		"error.cart_fetch_failed":          "Failed to load cart",
		"error.cart_update_failed":         "Failed to update cart",
		"error.wishlist_update_failed":     "Failed to update wishlist",
		"error.catalog_fetch_failed":       "Failed to load products",
		"error.session_not_found":          "Checkout session not found",
		"error.payment_not_completed":      "Payment not completed",
		"error.payment_gateway_failed":     "Payment provider is unavailable, please retry later",
		"error.webhook_signature_invalid":  "Invalid webhook signature",
		"error.checkout_failed":            "Checkout failed",
		"error.order_not_found":            "Order not found",
		"error.order_fetch_failed":         "Failed to load orders",
		"error.order_cancel_failed":        "Failed to cancel order",
		"error.order_integrity":            "Order totals could not be verified",
		"error.auth_failed":                "Authentication failed",
		"error.role_update_failed":         "Failed to update roles",
		"error.product_save_failed":        "Failed to save product",
		"error.product_invalid":            "Product data is invalid",
		"error.slug_exists":                "A product with this slug already exists",
		"error.role_invalid":               "Unknown role",
		"message.password_reset_sent":      "Password reset email sent successfully",
		"message.password_reset_done":      "Password reset successfully",
		"message.logout_success":           "Logout successful",
		"message.order_cancelled":          "Order cancelled successfully",
		"email.order_confirmation.subject": "Your MDSRTech order %s is confirmed",
		"email.order_confirmation.body":    "Hi %s,\n\nThank you for your order %s.\n\n%s\nSubtotal: %s\nShipping: %s\nTax: %s\nTotal: %s %s\n",
		"email.order_cancelled.subject":    "Your MDSRTech order %s was cancelled",
		"email.order_cancelled.body":       "Hi %s,\n\nYour order %s has been cancelled. The following items were included:\n\n%s\nIf you have questions, reply to this email.\n",
		"email.password_reset.subject":     "Reset Your MDSRTech Password",
		"email.password_reset.body":        "Hi %s,\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n%s\n\nThis link will expire in 1 hour. If you did not request a reset, you can ignore this email.\n",
		"email.password_changed.subject":   "Your MDSRTech Password Has Been Changed",
		"email.password_changed.body":      "Hi %s,\n\nYour password has been changed. If you did not make this change, please contact us immediately.\n",
	},
	LocaleFR: {
		"error.bad_request":                "Requête invalide",
		"error.unauthorized":               "Veuillez vous connecter",
		"error.forbidden":                  "Vous n'avez pas la permission d'effectuer cette action",
		"error.not_found":                  "Ressource introuvable",
		"error.internal":                   "Erreur interne du serveur",
		"error.rate_limited":               "Trop de requêtes, réessayez dans %d secondes",
		"error.token_invalid":              "Jeton invalide ou expiré",
		"error.user_disabled":              "Ce compte a été désactivé",
		"error.email_exists":               "Un compte avec ce courriel existe déjà",
		"error.invalid_credentials":        "Courriel ou mot de passe invalide",
		"error.password_min_length":        "Le mot de passe doit contenir au moins %d caractères",
		"error.password_weak":              "Le mot de passe ne respecte pas les exigences de sécurité",
		"error.product_not_found":          "Produit introuvable",
		"error.product_unavailable":        "Produit indisponible ou en rupture de stock",
		"error.cart_empty":                 "Le panier est vide",
		"error.payment_not_completed":      "Paiement non complété",
		"error.payment_gateway_failed":     "Le fournisseur de paiement est indisponible",
		"error.order_not_found":            "Commande introuvable",
		"message.order_cancelled":          "Commande annulée",
		"message.password_reset_sent":      "Courriel de réinitialisation envoyé",
		"message.password_reset_done":      "Mot de passe réinitialisé",
		"error.reset_token_invalid":        "Lien de réinitialisation invalide ou expiré",
		"error.reset_token_expired":        "Ce lien de réinitialisation a expiré. Veuillez en demander un nouveau.",
		"email.order_confirmation.subject": "Votre commande MDSRTech %s est confirmée",
		"email.order_confirmation.body":    "Bonjour %s,\n\nMerci pour votre commande %s.\n\n%s\nSous-total : %s\nLivraison : %s\nTaxes : %s\nTotal : %s %s\n",
		"email.order_cancelled.subject":    "Votre commande MDSRTech %s a été annulée",
		"email.order_cancelled.body":       "Bonjour %s,\n\nVotre commande %s a été annulée. Articles concernés :\n\n%s\nPour toute question, répondez à ce courriel.\n",
		"email.password_reset.subject":     "Réinitialisez votre mot de passe MDSRTech",
		"email.password_reset.body":        "Bonjour %s,\n\nNous avons reçu une demande de réinitialisation de votre mot de passe. Ouvrez le lien ci-dessous pour en choisir un nouveau :\n\n%s\n\nCe lien expire dans 1 heure. Si vous n'êtes pas à l'origine de cette demande, ignorez ce courriel.\n",
		"email.password_changed.subject":   "Votre mot de passe MDSRTech a été modifié",
		"email.password_changed.body":      "Bonjour %s,\n\nVotre mot de passe a été modifié. Si vous n'êtes pas à l'origine de ce changement, contactez-nous immédiatement.\n",
	},
}
