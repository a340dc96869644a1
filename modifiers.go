/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf

import "strings"

/**
Declaring modifiers of configuration units and their methods.
*/

type Modifiers uint32

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModAbstract
	ModFinal
	ModStatic
)

func (m Modifiers) IsPublic() bool {
	return m&ModPublic != 0
}

func (m Modifiers) IsProtected() bool {
	return m&ModProtected != 0
}

func (m Modifiers) IsPrivate() bool {
	return m&ModPrivate != 0
}

func (m Modifiers) IsAbstract() bool {
	return m&ModAbstract != 0
}

func (m Modifiers) IsFinal() bool {
	return m&ModFinal != 0
}

func (m Modifiers) IsStatic() bool {
	return m&ModStatic != 0
}

func (m Modifiers) String() string {
	var list []string
	if m.IsPublic() {
		list = append(list, "public")
	}
	if m.IsProtected() {
		list = append(list, "protected")
	}
	if m.IsPrivate() {
		list = append(list, "private")
	}
	if m.IsStatic() {
		list = append(list, "static")
	}
	if m.IsAbstract() {
		list = append(list, "abstract")
	}
	if m.IsFinal() {
		list = append(list, "final")
	}
	return strings.Join(list, " ")
}
