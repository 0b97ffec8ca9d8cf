package payment

import "strings"

var InstructionMap = map[MethodID][]string{
	MethodCard: {
		"Enter your card number, expiry date and CVC",
		"Complete 3D Secure verification if your bank asks for it",
		"Wait for the payment of {{amount}} to be confirmed on this page",
	},

	MethodGCash: {
		"You will be redirected to GCash to authorize {{amount}}",
		"Log in with your GCash number and MPIN",
		"Confirm the payment, then wait to be sent back here",
	},

	MethodMaya: {
		"You will be redirected to Maya to authorize {{amount}}",
		"Log in to your Maya account",
		"Confirm the payment, then wait to be sent back here",
	},

	MethodQrPh: {
		"You will be shown a QR Ph code for {{amount}}",
		"Scan it with any bank or e-wallet app that supports QR Ph",
		"Keep the page open until the payment is confirmed",
	},

	MethodBankTransfer: {
		"You will be redirected to your bank to pay {{amount}}",
		"Log in to online banking and approve the transfer",
		"Do not close the browser until you are sent back here",
	},
}

func GetInstructions(method MethodID) []string {
	if steps, ok := InstructionMap[method]; ok {
		return steps
	}

	return []string{
		"Follow the payment instructions shown on this page",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}
