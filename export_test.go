/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

func NewAutoBeanListener(naming NamingStrategy) Listener {
	return &autoBeanListener{naming: naming}
}

func EnhanceUnit(unit *ConfigurationUnit) error {
	return newContainer(nil).enhance(unit)
}
